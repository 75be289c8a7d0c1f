package rescisao

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/farxc/calculo-rescisao/internal/logger"
	"github.com/farxc/calculo-rescisao/internal/store"
	"github.com/shopspring/decimal"
)

func canonicalJSON(remuneracao, descontos string) string {
	return `{"Verbas_Rescisorias":{"Descontos":[` + descontos + `],"Remuneracao":[` + remuneracao + `]}}`
}

func TestReconcileReplacesPreviousRows(t *testing.T) {
	ms := newMemStore()
	r := NewReconciler(ms, logger.NewNop())
	ctx := context.Background()

	first := canonicalJSON(
		`{"Provento":"A","Cálculo":{"Valor":100}},{"Provento":"B","Cálculo":{"Valor":200}}`, "")
	if _, err := r.ReconcileJSON(ctx, "X", first); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if got := ms.proventoNames("X"); !equalStrings(got, []string{"A", "B"}) {
		t.Fatalf("after first run = %v", got)
	}

	second := canonicalJSON(`{"Provento":"C","Cálculo":{"Valor":300}}`, "")
	if _, err := r.ReconcileJSON(ctx, "X", second); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if got := ms.proventoNames("X"); !equalStrings(got, []string{"C"}) {
		t.Errorf("after second run = %v, want [C]", got)
	}
}

func TestReconcilePersistPredicate(t *testing.T) {
	ms := newMemStore()
	r := NewReconciler(ms, logger.NewNop())

	doc := canonicalJSON(
		`{"Provento":"Multa art. 477","Cálculo":{"Valor":0},"Natureza_da_Verba":"Irregularidade_Contratual"},
		 {"Provento":"Informativo","Cálculo":{"Valor":0},"Natureza_da_Verba":"Informativa"},
		 {"Provento":"Sem valor","Cálculo":{}},
		 {"Provento":"Texto","Cálculo":{"Valor":"1.500,00"}}`,
		`{"Desconto":"Adiantamento","Cálculo":{"Valor":0},"Natureza_da_Verba":"Irregularidade_Contratual"},
		 {"Desconto":"Zero","Cálculo":{"Valor":0}}`)

	out, err := r.ReconcileJSON(context.Background(), "calc", doc)
	if err != nil {
		t.Fatalf("ReconcileJSON: %v", err)
	}
	if got := ms.proventoNames("calc"); !equalStrings(got, []string{"Multa art. 477", "Texto"}) {
		t.Errorf("proventos = %v", got)
	}
	if got := ms.descontoNames("calc"); !equalStrings(got, []string{"Adiantamento"}) {
		t.Errorf("descontos = %v", got)
	}
	if out.ProventosStored != 2 || out.ProventosDropped != 2 || out.DescontosStored != 1 || out.DescontosDropped != 1 {
		t.Errorf("unexpected outcome %+v", out)
	}
	if v := ms.proventos["calc"][1].ValorCalculado; !v.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("coerced valor = %s, want 1500", v)
	}
}

func TestReconcileRowMapping(t *testing.T) {
	ms := newMemStore()
	r := NewReconciler(ms, logger.NewNop())

	item := `{"Provento":"Férias Vencidas","Cálculo":{"Parametro":"30 dias","Valor":3000.5,"Fórmula_Sugerida":"salario + 1/3"},` +
		`"Memoria_de_Calculo":"salário de 2250,38","Legislação":"CLT art. 146","Exemplos_Aplicaveis":"dispensa sem justa causa","Natureza_da_Verba":"Indenizatória"}`
	if _, err := r.ReconcileJSON(context.Background(), "calc", canonicalJSON(item, "")); err != nil {
		t.Fatal(err)
	}

	rows := ms.proventos["calc"]
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	checks := map[string][2]string{
		"NomeProvento":       {row.NomeProvento, "Férias Vencidas"},
		"ParametroCalculo":   {row.ParametroCalculo, "30 dias"},
		"FormulaSugerida":    {row.FormulaSugerida, "salario + 1/3"},
		"MemoriaCalculo":     {row.MemoriaCalculo, "salário de 2250,38"},
		"Legislacao":         {row.Legislacao, "CLT art. 146"},
		"ExemplosAplicaveis": {row.ExemplosAplicaveis, "dispensa sem justa causa"},
		"NaturezaDaVerba":    {row.NaturezaDaVerba, "Indenizatória"},
		"CalculationID":      {row.CalculationID, "calc"},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
	if !row.ValorCalculado.Equal(decimal.RequireFromString("3000.5")) {
		t.Errorf("ValorCalculado = %s", row.ValorCalculado)
	}

	var audit, original any
	if err := json.Unmarshal(row.JSONCompleto, &audit); err != nil {
		t.Fatal(err)
	}
	_ = json.Unmarshal([]byte(item), &original)
	a, _ := json.Marshal(audit)
	o, _ := json.Marshal(original)
	if string(a) != string(o) {
		t.Errorf("audit payload differs from the original item:\n%s\n%s", a, o)
	}
}

func TestReconcileWithoutVerbasSkips(t *testing.T) {
	ms := newMemStore()
	r := NewReconciler(ms, logger.NewNop())

	out, err := r.ReconcileJSON(context.Background(), "calc", `{"Resumo":"apenas texto"}`)
	if err != nil {
		t.Fatalf("ReconcileJSON: %v", err)
	}
	if !out.Skipped {
		t.Error("Skipped = false")
	}
}

func TestReconcileInvalidInput(t *testing.T) {
	r := NewReconciler(newMemStore(), logger.NewNop())
	ctx := context.Background()

	if _, err := r.ReconcileJSON(ctx, "", `{}`); KindOf(err) != KindMissingInput {
		t.Errorf("missing id kind = %q", KindOf(err))
	}
	if _, err := r.ReconcileJSON(ctx, "calc", ""); KindOf(err) != KindMissingInput {
		t.Errorf("missing payload kind = %q", KindOf(err))
	}
	for _, bad := range []string{"not json", `{"a":`, `{"a":1} extra`} {
		if _, err := r.ReconcileJSON(ctx, "calc", bad); KindOf(err) != KindInvalidFormat {
			t.Errorf("ReconcileJSON(%q) kind = %q, want %q", bad, KindOf(err), KindInvalidFormat)
		}
	}
}

func TestReconcileNonObjectPayloadSkips(t *testing.T) {
	for _, payload := range []string{`[{"Provento":"x"}]`, `null`, `42`, `"texto"`} {
		ms := newMemStore()
		ms.proventos["calc"] = []store.ProventoRow{{CalculationID: "calc", NomeProvento: "antigo"}}
		r := NewReconciler(ms, logger.NewNop())

		out, err := r.ReconcileJSON(context.Background(), "calc", payload)
		if err != nil {
			t.Fatalf("ReconcileJSON(%s): %v", payload, err)
		}
		if !out.Skipped {
			t.Errorf("ReconcileJSON(%s): Skipped = false", payload)
		}
		if got := ms.proventoNames("calc"); !equalStrings(got, []string{"antigo"}) {
			t.Errorf("ReconcileJSON(%s) touched stored rows: %v", payload, got)
		}
	}
}

func TestReconcileVerbasNotAnObjectSkips(t *testing.T) {
	for _, payload := range []string{
		`{"Verbas_Rescisorias":null}`,
		`{"Verbas_Rescisorias":[]}`,
		`{"Verbas_Rescisorias":"nenhuma"}`,
	} {
		ms := newMemStore()
		ms.proventos["calc"] = []store.ProventoRow{{CalculationID: "calc", NomeProvento: "antigo"}}
		r := NewReconciler(ms, logger.NewNop())

		out, err := r.ReconcileJSON(context.Background(), "calc", payload)
		if err != nil {
			t.Fatalf("ReconcileJSON(%s): %v", payload, err)
		}
		if !out.Skipped {
			t.Errorf("ReconcileJSON(%s): Skipped = false", payload)
		}
		if got := ms.proventoNames("calc"); !equalStrings(got, []string{"antigo"}) {
			t.Errorf("ReconcileJSON(%s) deleted stored rows: %v", payload, got)
		}
	}
}

func TestReconcileBestEffortContinuesPastFailures(t *testing.T) {
	ms := newMemStore()
	ms.failDeleteProventos = true
	ms.failInsertNamed["B"] = true
	r := NewReconciler(ms, logger.NewNop())

	doc := canonicalJSON(
		`{"Provento":"A","Cálculo":{"Valor":1}},{"Provento":"B","Cálculo":{"Valor":2}},{"Provento":"C","Cálculo":{"Valor":3}}`,
		`{"Desconto":"D","Cálculo":{"Valor":4}}`)
	out, err := r.ReconcileJSON(context.Background(), "calc", doc)
	if err != nil {
		t.Fatalf("best-effort reconcile returned %v", err)
	}
	if out.Failures != 2 {
		t.Errorf("Failures = %d, want 2", out.Failures)
	}
	if got := ms.proventoNames("calc"); !equalStrings(got, []string{"A", "C"}) {
		t.Errorf("proventos = %v, want [A C]", got)
	}
	if got := ms.descontoNames("calc"); !equalStrings(got, []string{"D"}) {
		t.Errorf("descontos = %v, want [D]", got)
	}
}

func TestReconcileAtomicRollsBack(t *testing.T) {
	ms := newMemStore()
	r := NewReconciler(ms, logger.NewNop())
	r.Atomic = true
	ctx := context.Background()

	if _, err := r.ReconcileJSON(ctx, "calc", canonicalJSON(`{"Provento":"A","Cálculo":{"Valor":1}}`, "")); err != nil {
		t.Fatal(err)
	}

	ms.failInsertNamed["C"] = true
	_, err := r.ReconcileJSON(ctx, "calc", canonicalJSON(`{"Provento":"B","Cálculo":{"Valor":2}},{"Provento":"C","Cálculo":{"Valor":3}}`, ""))
	if KindOf(err) != KindInsertFailed {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindInsertFailed)
	}
	if got := ms.proventoNames("calc"); !equalStrings(got, []string{"A"}) {
		t.Errorf("proventos after rollback = %v, want [A]", got)
	}
}
