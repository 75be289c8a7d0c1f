package rescisao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/farxc/calculo-rescisao/internal/logger"
	"github.com/farxc/calculo-rescisao/internal/store"
	"github.com/jmoiron/sqlx/types"
)

// VerbaRepository is the storage the reconciler writes to.
type VerbaRepository interface {
	store.VerbaWriter
	InTx(ctx context.Context, fn func(tx store.VerbaWriter) error) error
}

// Outcome reports what a reconciliation did.
type Outcome struct {
	// Skipped is true when the document had no Verbas_Rescisorias.
	Skipped          bool
	ProventosStored  int
	DescontosStored  int
	ProventosDropped int
	DescontosDropped int
	// Failures counts deletes and inserts that failed in best-effort mode.
	Failures int
}

// Reconciler replaces the stored line items of a calculation with the items
// of a canonical document: delete everything, then insert what KeepOnPersist
// accepts.
//
// By default a failed delete or insert is logged and processing goes on, so a
// run can leave a partial set behind. With Atomic set the whole run happens in
// one transaction and the first failure aborts it. Two runs for the same
// calculation are not serialized; interleaved runs can leave duplicates or
// lose rows, and the last one to finish wins.
type Reconciler struct {
	verbas VerbaRepository
	log    *logger.Logger
	Atomic bool
}

func NewReconciler(verbas VerbaRepository, log *logger.Logger) *Reconciler {
	return &Reconciler{verbas: verbas, log: log}
}

const reconcilerComponent = "Reconciler"

// ReconcileJSON parses text as the canonical document and reconciles it.
func (r *Reconciler) ReconcileJSON(ctx context.Context, calculationID, text string) (Outcome, error) {
	if calculationID == "" || text == "" {
		return Outcome{}, newError(KindMissingInput, "missing calculationId or aiResponseJson", nil)
	}
	if _, err := TryParseJSON(text); err != nil {
		e := newError(KindInvalidFormat, "invalid aiResponseJson format", err)
		e.Snippet = snippet(text)
		return Outcome{}, e
	}
	doc, err := ParseDocument([]byte(text))
	if err != nil {
		// valid JSON that is not an object has no Verbas_Rescisorias
		doc = Document{}
	}
	return r.Reconcile(ctx, calculationID, doc)
}

// Reconcile writes the Remuneracao and Descontos buckets of doc for
// calculationID. A document without Verbas_Rescisorias is a successful no-op.
func (r *Reconciler) Reconcile(ctx context.Context, calculationID string, doc Document) (Outcome, error) {
	if calculationID == "" {
		return Outcome{}, newError(KindMissingInput, "missing calculationId", nil)
	}
	if !doc.HasVerbas() {
		r.log.Info(reconcilerComponent, "No Verbas_Rescisorias for calculation %s, skipping detailed insertion", calculationID)
		return Outcome{Skipped: true}, nil
	}
	canonical := doc.Canonical()

	if !r.Atomic {
		return r.apply(ctx, r.verbas, calculationID, canonical, false)
	}

	var out Outcome
	err := r.verbas.InTx(ctx, func(tx store.VerbaWriter) error {
		var err error
		out, err = r.apply(ctx, tx, calculationID, canonical, true)
		return err
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return Outcome{}, e
		}
		return Outcome{}, newError(KindPersistenceFailed, "failed to store proventos and descontos", err)
	}
	return out, nil
}

func (r *Reconciler) apply(ctx context.Context, w store.VerbaWriter, calculationID string, c Canonical, strict bool) (Outcome, error) {
	var out Outcome

	// The two deletes are independent of each other.
	if n, err := w.DeleteProventos(ctx, calculationID); err != nil {
		if strict {
			return out, newError(KindDeleteFailed, "failed to delete proventos", err)
		}
		out.Failures++
		r.log.Error(reconcilerComponent, "%s: failed to delete proventos for calculation %s: %v", KindDeleteFailed, calculationID, err)
	} else {
		r.log.Debug(reconcilerComponent, "Deleted %d proventos for calculation %s", n, calculationID)
	}
	if n, err := w.DeleteDescontos(ctx, calculationID); err != nil {
		if strict {
			return out, newError(KindDeleteFailed, "failed to delete descontos", err)
		}
		out.Failures++
		r.log.Error(reconcilerComponent, "%s: failed to delete descontos for calculation %s: %v", KindDeleteFailed, calculationID, err)
	} else {
		r.log.Debug(reconcilerComponent, "Deleted %d descontos for calculation %s", n, calculationID)
	}

	for _, raw := range c.Remuneracao {
		row, keep := proventoRow(calculationID, raw)
		if !keep {
			out.ProventosDropped++
			continue
		}
		if err := w.InsertProvento(ctx, row); err != nil {
			if strict {
				return out, newError(KindInsertFailed, fmt.Sprintf("failed to insert provento %q", row.NomeProvento), err)
			}
			out.Failures++
			r.log.Error(reconcilerComponent, "%s: calculation %s, provento %q: %v", KindInsertFailed, calculationID, row.NomeProvento, err)
			continue
		}
		out.ProventosStored++
	}

	for _, raw := range c.Descontos {
		row, keep := descontoRow(calculationID, raw)
		if !keep {
			out.DescontosDropped++
			continue
		}
		if err := w.InsertDesconto(ctx, row); err != nil {
			if strict {
				return out, newError(KindInsertFailed, fmt.Sprintf("failed to insert desconto %q", row.NomeDesconto), err)
			}
			out.Failures++
			r.log.Error(reconcilerComponent, "%s: calculation %s, desconto %q: %v", KindInsertFailed, calculationID, row.NomeDesconto, err)
			continue
		}
		out.DescontosStored++
	}

	r.log.Info(reconcilerComponent, "Calculation %s: stored %d proventos and %d descontos (%d failures)",
		calculationID, out.ProventosStored, out.DescontosStored, out.Failures)
	return out, nil
}

// persistable reads a bucket item and applies KeepOnPersist. Bucket items are
// not re-classified: a Remuneracao entry is a provento even if it lacks the
// Provento name.
func persistable(raw json.RawMessage) (Verba, bool) {
	v, ok := ParseVerba(raw)
	if !ok {
		return Verba{}, false
	}
	return v, KeepOnPersist(CoerceValor(v.Calculo.Valor), v.Natureza)
}

func proventoRow(calculationID string, raw json.RawMessage) (*store.ProventoRow, bool) {
	v, keep := persistable(raw)
	if !keep {
		return nil, false
	}
	return &store.ProventoRow{
		CalculationID:      calculationID,
		NomeProvento:       text(v.fields[FieldProvento]),
		ValorCalculado:     CoerceValor(v.Calculo.Valor),
		NaturezaDaVerba:    v.Natureza,
		Legislacao:         v.Legislacao,
		ExemplosAplicaveis: v.ExemplosAplicaveis,
		FormulaSugerida:    v.Calculo.FormulaSugerida,
		ParametroCalculo:   v.Calculo.Parametro,
		JSONCompleto:       types.JSONText(v.Raw),
		MemoriaCalculo:     v.MemoriaDeCalculo,
	}, true
}

func descontoRow(calculationID string, raw json.RawMessage) (*store.DescontoRow, bool) {
	v, keep := persistable(raw)
	if !keep {
		return nil, false
	}
	return &store.DescontoRow{
		CalculationID:      calculationID,
		NomeDesconto:       text(v.fields[FieldDesconto]),
		ValorCalculado:     CoerceValor(v.Calculo.Valor),
		NaturezaDaVerba:    v.Natureza,
		Legislacao:         v.Legislacao,
		ExemplosAplicaveis: v.ExemplosAplicaveis,
		FormulaSugerida:    v.Calculo.FormulaSugerida,
		ParametroCalculo:   v.Calculo.Parametro,
		JSONCompleto:       types.JSONText(v.Raw),
		MemoriaCalculo:     v.MemoriaDeCalculo,
	}, true
}
