package rescisao

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// VerbasKey is the top-level key holding the verba categories.
const VerbasKey = "Verbas_Rescisorias"

var errNotObject = errors.New("JSON value is not an object")

// Document is a parsed top-level JSON object. Values are kept raw and keys
// keep the order the agent wrote them, so fields the pipeline does not touch
// pass through unchanged.
type Document struct {
	keys   []string
	fields map[string]json.RawMessage
}

// ParseDocument parses data as a JSON object. Any other JSON value, null
// included, fails with an error.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return errNotObject
	}

	doc := Document{fields: map[string]json.RawMessage{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		doc.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = doc
	return nil
}

// MarshalJSON writes the fields in their original order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(d.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the raw value of key, or nil when absent.
func (d Document) Get(key string) json.RawMessage {
	return d.fields[key]
}

// Set replaces the value of key. A new key goes last.
func (d *Document) Set(key string, value json.RawMessage) {
	if d.fields == nil {
		d.fields = map[string]json.RawMessage{}
	}
	if _, ok := d.fields[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = value
}

// Len returns the number of top-level fields.
func (d Document) Len() int {
	return len(d.keys)
}

// clone returns a copy that can be modified without touching d.
func (d Document) clone() Document {
	out := Document{
		keys:   append([]string(nil), d.keys...),
		fields: make(map[string]json.RawMessage, len(d.fields)),
	}
	for k, v := range d.fields {
		out.fields[k] = v
	}
	return out
}

// HasVerbas reports whether Verbas_Rescisorias is present and holds an
// object. A null or any other value counts as absent.
func (d Document) HasVerbas() bool {
	raw := bytes.TrimSpace(d.fields[VerbasKey])
	return len(raw) > 0 && raw[0] == '{'
}

// Canonical decodes the Verbas_Rescisorias value as the two-bucket shape.
// Anything that is not an object yields empty buckets.
func (d Document) Canonical() Canonical {
	var c Canonical
	if !d.HasVerbas() {
		return c
	}
	var buckets map[string]json.RawMessage
	if err := json.Unmarshal(d.fields[VerbasKey], &buckets); err != nil {
		return c
	}
	c.Remuneracao = rawArray(buckets[RemuneracaoKey])
	c.Descontos = rawArray(buckets[DescontosKey])
	return c
}

// rawArray returns the elements of a JSON array, or nil for anything else.
func rawArray(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
