package rescisao

import "github.com/shopspring/decimal"

// The two stages keep zero-valued items for different reasons: reshaping keeps
// informational entries, persistence keeps contractual irregularities. Both
// predicates are intentionally left as they are until product confirms whether
// they should be merged.

// KeepOnReshape decides whether a verba survives the canonical reshape.
func KeepOnReshape(valor decimal.Decimal, natureza string) bool {
	return valor.IsPositive() || natureza == NaturezaInformativa
}

// KeepOnPersist decides whether a verba is written to storage.
func KeepOnPersist(valor decimal.Decimal, natureza string) bool {
	return valor.IsPositive() || natureza == NaturezaIrregularidade
}
