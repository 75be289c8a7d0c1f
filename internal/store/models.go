package store

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Calculation represents the 'calculos' table. Only the columns the verbas
// pipeline reads or writes are mapped.
type Calculation struct {
	ID         string          `db:"id"`
	RespostaIA json.RawMessage `db:"resposta_ia"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// ProventoRow represents the 'proventos' table.
type ProventoRow struct {
	ID                 int64           `db:"id" json:"id"`
	CalculationID      string          `db:"calculation_id" json:"calculation_id"`
	NomeProvento       string          `db:"nome_provento" json:"nome_provento"`
	ValorCalculado     decimal.Decimal `db:"valor_calculado" json:"valor_calculado"`
	NaturezaDaVerba    string          `db:"natureza_da_verba" json:"natureza_da_verba"`
	Legislacao         string          `db:"legislacao" json:"legislacao"`
	ExemplosAplicaveis string          `db:"exemplos_aplicaveis" json:"exemplos_aplicaveis"`
	FormulaSugerida    string          `db:"formula_sugerida" json:"formula_sugerida"`
	ParametroCalculo   string          `db:"parametro_calculo" json:"parametro_calculo"`
	JSONCompleto       types.JSONText  `db:"json_completo" json:"json_completo"`
	MemoriaCalculo     string          `db:"memoria_calculo" json:"memoria_calculo"`
	InsertedAt         time.Time       `db:"inserted_at" json:"inserted_at"`
}

// DescontoRow represents the 'descontos' table.
type DescontoRow struct {
	ID                 int64           `db:"id" json:"id"`
	CalculationID      string          `db:"calculation_id" json:"calculation_id"`
	NomeDesconto       string          `db:"nome_desconto" json:"nome_desconto"`
	ValorCalculado     decimal.Decimal `db:"valor_calculado" json:"valor_calculado"`
	NaturezaDaVerba    string          `db:"natureza_da_verba" json:"natureza_da_verba"`
	Legislacao         string          `db:"legislacao" json:"legislacao"`
	ExemplosAplicaveis string          `db:"exemplos_aplicaveis" json:"exemplos_aplicaveis"`
	FormulaSugerida    string          `db:"formula_sugerida" json:"formula_sugerida"`
	ParametroCalculo   string          `db:"parametro_calculo" json:"parametro_calculo"`
	JSONCompleto       types.JSONText  `db:"json_completo" json:"json_completo"`
	MemoriaCalculo     string          `db:"memoria_calculo" json:"memoria_calculo"`
	InsertedAt         time.Time       `db:"inserted_at" json:"inserted_at"`
}
