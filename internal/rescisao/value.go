package rescisao

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// numberValue decodes raw when it is a JSON number literal.
func numberValue(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return decimal.Zero, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CoerceValor turns a Cálculo.Valor into an amount. Numbers are taken as-is,
// strings are parsed as plain decimals first and then in Brazilian notation
// ("R$ 1.234,56"). Anything else is zero.
func CoerceValor(raw json.RawMessage) decimal.Decimal {
	if d, ok := numberValue(raw); ok {
		return d
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Zero
	}
	return parseAmount(s)
}

func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	// Remove thousands separator (.) and replace decimal separator (,) with (.)
	clean := strings.ReplaceAll(s, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if d, err := decimal.NewFromString(clean); err == nil {
		return d
	}
	return decimal.Zero
}
