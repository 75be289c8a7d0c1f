// Package report renders the stored line items of a calculation as a table.
package report

import (
	"fmt"
	"io"

	"github.com/farxc/calculo-rescisao/internal/store"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
)

const (
	TipoProvento = "provento"
	TipoDesconto = "desconto"
	TipoTotal    = "total"
)

// Totals sums a calculation's stored line items.
type Totals struct {
	Proventos decimal.Decimal `json:"total_proventos"`
	Descontos decimal.Decimal `json:"total_descontos"`
	Liquido   decimal.Decimal `json:"liquido"`
}

// Verbas is the stored view of a calculation.
type Verbas struct {
	CalculationID string              `json:"calculation_id"`
	Proventos     []store.ProventoRow `json:"proventos"`
	Descontos     []store.DescontoRow `json:"descontos"`
	Totals        Totals              `json:"totais"`
}

func New(calculationID string, proventos []store.ProventoRow, descontos []store.DescontoRow) Verbas {
	v := Verbas{
		CalculationID: calculationID,
		Proventos:     proventos,
		Descontos:     descontos,
	}
	v.Totals = totals(proventos, descontos)
	return v
}

func totals(proventos []store.ProventoRow, descontos []store.DescontoRow) Totals {
	t := Totals{Proventos: decimal.Zero, Descontos: decimal.Zero}
	for _, p := range proventos {
		t.Proventos = t.Proventos.Add(p.ValorCalculado)
	}
	for _, d := range descontos {
		t.Descontos = t.Descontos.Add(d.ValorCalculado)
	}
	t.Liquido = t.Proventos.Sub(t.Descontos)
	return t
}

// Frame builds one row per line item with columns
// tipo, nome, valor, natureza, legislacao, parametro, formula.
func (v Verbas) Frame() dataframe.DataFrame {
	n := len(v.Proventos) + len(v.Descontos)
	tipo := make([]string, 0, n)
	nome := make([]string, 0, n)
	valor := make([]float64, 0, n)
	natureza := make([]string, 0, n)
	legislacao := make([]string, 0, n)
	parametro := make([]string, 0, n)
	formula := make([]string, 0, n)

	for _, p := range v.Proventos {
		tipo = append(tipo, TipoProvento)
		nome = append(nome, p.NomeProvento)
		valor = append(valor, p.ValorCalculado.InexactFloat64())
		natureza = append(natureza, p.NaturezaDaVerba)
		legislacao = append(legislacao, p.Legislacao)
		parametro = append(parametro, p.ParametroCalculo)
		formula = append(formula, p.FormulaSugerida)
	}
	for _, d := range v.Descontos {
		tipo = append(tipo, TipoDesconto)
		nome = append(nome, d.NomeDesconto)
		valor = append(valor, d.ValorCalculado.InexactFloat64())
		natureza = append(natureza, d.NaturezaDaVerba)
		legislacao = append(legislacao, d.Legislacao)
		parametro = append(parametro, d.ParametroCalculo)
		formula = append(formula, d.FormulaSugerida)
	}

	return dataframe.New(
		series.New(tipo, series.String, "tipo"),
		series.New(nome, series.String, "nome"),
		series.New(valor, series.Float, "valor"),
		series.New(natureza, series.String, "natureza"),
		series.New(legislacao, series.String, "legislacao"),
		series.New(parametro, series.String, "parametro"),
		series.New(formula, series.String, "formula"),
	)
}

// SumByTipo adds up the valor column of the rows of one tipo.
func SumByTipo(df dataframe.DataFrame, tipo string) float64 {
	filtered := df.Filter(dataframe.F{Colname: "tipo", Comparator: series.Eq, Comparando: tipo})
	if filtered.Err != nil || filtered.Nrow() == 0 {
		return 0
	}
	return floats.Sum(filtered.Col("valor").Float())
}

// WriteCSV writes the line items as CSV with a header row, followed by a
// total_proventos, total_descontos and liquido footer.
func (v Verbas) WriteCSV(w io.Writer) error {
	df := v.Frame()
	if df.Err != nil {
		return fmt.Errorf("failed to build verbas table: %w", df.Err)
	}
	df = df.RBind(totalsFrame(df))
	if df.Err != nil {
		return fmt.Errorf("failed to append verbas totals: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write verbas csv: %w", err)
	}
	return nil
}

// totalsFrame sums the valor column of df into footer rows shaped like Frame.
func totalsFrame(df dataframe.DataFrame) dataframe.DataFrame {
	proventos := SumByTipo(df, TipoProvento)
	descontos := SumByTipo(df, TipoDesconto)
	blank := []string{"", "", ""}

	return dataframe.New(
		series.New([]string{TipoTotal, TipoTotal, TipoTotal}, series.String, "tipo"),
		series.New([]string{"total_proventos", "total_descontos", "liquido"}, series.String, "nome"),
		series.New([]float64{proventos, descontos, proventos - descontos}, series.Float, "valor"),
		series.New(blank, series.String, "natureza"),
		series.New(blank, series.String, "legislacao"),
		series.New(blank, series.String, "parametro"),
		series.New(blank, series.String, "formula"),
	)
}
