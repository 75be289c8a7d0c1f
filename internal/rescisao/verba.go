package rescisao

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names of a verba item as emitted by the agent.
const (
	FieldProvento   = "Provento"
	FieldDesconto   = "Desconto"
	FieldCalculo    = "Cálculo"
	FieldMemoria    = "Memoria_de_Calculo"
	FieldLegislacao = "Legislação"
	FieldExemplos   = "Exemplos_Aplicaveis"
	FieldNatureza   = "Natureza_da_Verba"

	FieldParametro = "Parametro"
	FieldValor     = "Valor"
	FieldFormula   = "Fórmula_Sugerida"
)

// Natureza tags with special handling.
const (
	NaturezaInformativa    = "Informativa"
	NaturezaIrregularidade = "Irregularidade_Contratual"
)

// Bucket keys of the canonical shape.
const (
	RemuneracaoKey = "Remuneracao"
	DescontosKey   = "Descontos"
)

type VerbaKind int

const (
	Unclassifiable VerbaKind = iota
	Credit
	Debit
)

func (k VerbaKind) String() string {
	switch k {
	case Credit:
		return "provento"
	case Debit:
		return "desconto"
	default:
		return "unclassifiable"
	}
}

// Calculo is the nested calculation block of a verba.
type Calculo struct {
	Parametro       string
	FormulaSugerida string
	// Valor is the raw JSON value; the agent usually sends a number but
	// strings and nulls show up too.
	Valor json.RawMessage
}

// Verba is one decoded line item. Raw keeps the original object for audit.
type Verba struct {
	Kind               VerbaKind
	Name               string
	Calculo            Calculo
	MemoriaDeCalculo   string
	Legislacao         string
	ExemplosAplicaveis string
	Natureza           string
	Raw                json.RawMessage

	fields map[string]json.RawMessage
}

// ParseVerba decodes a raw item. ok is false when raw is not a JSON object.
func ParseVerba(raw json.RawMessage) (v Verba, ok bool) {
	fields, ok := objectFields(raw)
	if !ok {
		return Verba{}, false
	}

	v = Verba{
		Raw:                raw,
		fields:             fields,
		MemoriaDeCalculo:   text(fields[FieldMemoria]),
		Legislacao:         text(fields[FieldLegislacao]),
		ExemplosAplicaveis: text(fields[FieldExemplos]),
		Natureza:           text(fields[FieldNatureza]),
	}
	if calc, ok := objectFields(fields[FieldCalculo]); ok {
		v.Calculo = Calculo{
			Parametro:       text(calc[FieldParametro]),
			FormulaSugerida: text(calc[FieldFormula]),
			Valor:           calc[FieldValor],
		}
	}

	provento, hasProvento := name(fields[FieldProvento])
	desconto, hasDesconto := name(fields[FieldDesconto])
	switch {
	case hasProvento && !hasDesconto:
		v.Kind, v.Name = Credit, provento
	case hasDesconto && !hasProvento:
		v.Kind, v.Name = Debit, desconto
	default:
		v.Kind = Unclassifiable
	}
	return v, true
}

// has reports whether the item carries key at all.
func (v Verba) has(key string) bool {
	_, ok := v.fields[key]
	return ok
}

// objectFields decodes a JSON object with its keys in NFC, so decomposed
// accents ("Cálculo") match the field constants.
func objectFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, val := range m {
		out[norm.NFC.String(k)] = val
	}
	return out, true
}

// name returns a non-empty string value.
func name(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// text renders a scalar as a column value: strings as-is, null or absent as
// "", anything else as its compact JSON.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
