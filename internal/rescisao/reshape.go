package rescisao

import (
	"bytes"
	"encoding/json"
)

// Canonical is the two-bucket form of Verbas_Rescisorias. Field order is the
// serialized key order: Descontos is reported first.
type Canonical struct {
	Descontos   []json.RawMessage `json:"Descontos,omitempty"`
	Remuneracao []json.RawMessage `json:"Remuneracao,omitempty"`
}

// debitFields is the re-emitted form of a pure debit.
type debitFields struct {
	Calculo            json.RawMessage `json:"Cálculo,omitempty"`
	Desconto           json.RawMessage `json:"Desconto,omitempty"`
	Legislacao         json.RawMessage `json:"Legislação,omitempty"`
	NaturezaDaVerba    json.RawMessage `json:"Natureza_da_Verba,omitempty"`
	MemoriaDeCalculo   json.RawMessage `json:"Memoria_de_Calculo,omitempty"`
	ExemplosAplicaveis json.RawMessage `json:"Exemplos_Aplicaveis,omitempty"`
}

// Reshape regroups the arbitrarily named categories under Verbas_Rescisorias
// into Remuneracao and Descontos. Items without a numeric Cálculo.Valor, items
// rejected by KeepOnReshape and unclassifiable items are dropped. Other
// top-level fields are left untouched and keep their position. ok is false
// when Verbas_Rescisorias is missing or not an object, in which case doc is
// returned as is.
//
// Reshape never fails: irregular agent output only loses items.
func Reshape(doc Document) (out Document, ok bool) {
	if !doc.HasVerbas() {
		return doc, false
	}

	var credits, debits []Verba
	for _, category := range categories(doc.Get(VerbasKey)) {
		for _, raw := range category {
			v, ok := ParseVerba(raw)
			if !ok {
				continue
			}
			valor, numeric := numberValue(v.Calculo.Valor)
			if !numeric || !KeepOnReshape(valor, v.Natureza) {
				continue
			}
			switch v.Kind {
			case Credit:
				credits = append(credits, v)
			case Debit:
				debits = append(debits, v)
			}
		}
	}

	var c Canonical
	for _, v := range debits {
		c.Descontos = append(c.Descontos, normalizeDebit(v))
	}
	for _, v := range credits {
		c.Remuneracao = append(c.Remuneracao, v.Raw)
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		// every element is already valid JSON
		return doc, true
	}

	out = doc.clone()
	out.Set(VerbasKey, encoded)
	return out, true
}

// categories returns the item arrays under Verbas_Rescisorias in the order
// the agent wrote them. Values that are not arrays are skipped.
func categories(raw json.RawMessage) [][]json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var out [][]json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return out
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return out
		}
		if items := rawArray(value); items != nil {
			out = append(out, items)
		}
	}
	return out
}

// normalizeDebit keeps only the recognized debit fields. An item that also
// carries a Provento is returned unchanged.
func normalizeDebit(v Verba) json.RawMessage {
	if v.has(FieldProvento) {
		return v.Raw
	}
	f := v.fields
	encoded, err := json.Marshal(debitFields{
		Calculo:            f[FieldCalculo],
		Desconto:           f[FieldDesconto],
		Legislacao:         f[FieldLegislacao],
		NaturezaDaVerba:    f[FieldNatureza],
		MemoriaDeCalculo:   f[FieldMemoria],
		ExemplosAplicaveis: f[FieldExemplos],
	})
	if err != nil {
		return v.Raw
	}
	return encoded
}
