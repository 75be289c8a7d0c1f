package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// VerbaStore persists the line items of a calculation in the 'proventos' and
// 'descontos' tables.
type VerbaStore struct {
	db   Queryer
	conn *sqlx.DB
}

func (vs *VerbaStore) DeleteProventos(ctx context.Context, calculationID string) (int64, error) {
	result, err := vs.db.ExecContext(ctx, `DELETE FROM proventos WHERE calculation_id = $1`, calculationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete proventos for calculation %s: %w", calculationID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

func (vs *VerbaStore) DeleteDescontos(ctx context.Context, calculationID string) (int64, error) {
	result, err := vs.db.ExecContext(ctx, `DELETE FROM descontos WHERE calculation_id = $1`, calculationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete descontos for calculation %s: %w", calculationID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

func (vs *VerbaStore) InsertProvento(ctx context.Context, row *ProventoRow) error {
	query := `INSERT INTO proventos (
		calculation_id,
		nome_provento,
		valor_calculado,
		natureza_da_verba,
		legislacao,
		exemplos_aplicaveis,
		formula_sugerida,
		parametro_calculo,
		json_completo,
		memoria_calculo,
		inserted_at
	) VALUES (
		:calculation_id,
		:nome_provento,
		:valor_calculado,
		:natureza_da_verba,
		:legislacao,
		:exemplos_aplicaveis,
		:formula_sugerida,
		:parametro_calculo,
		:json_completo,
		:memoria_calculo,
		:inserted_at
	)`

	if row.InsertedAt.IsZero() {
		row.InsertedAt = time.Now()
	}
	if _, err := vs.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert provento %q: %w", row.NomeProvento, err)
	}
	return nil
}

func (vs *VerbaStore) InsertDesconto(ctx context.Context, row *DescontoRow) error {
	query := `INSERT INTO descontos (
		calculation_id,
		nome_desconto,
		valor_calculado,
		natureza_da_verba,
		legislacao,
		exemplos_aplicaveis,
		formula_sugerida,
		parametro_calculo,
		json_completo,
		memoria_calculo,
		inserted_at
	) VALUES (
		:calculation_id,
		:nome_desconto,
		:valor_calculado,
		:natureza_da_verba,
		:legislacao,
		:exemplos_aplicaveis,
		:formula_sugerida,
		:parametro_calculo,
		:json_completo,
		:memoria_calculo,
		:inserted_at
	)`

	if row.InsertedAt.IsZero() {
		row.InsertedAt = time.Now()
	}
	if _, err := vs.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert desconto %q: %w", row.NomeDesconto, err)
	}
	return nil
}

func (vs *VerbaStore) ListProventos(ctx context.Context, calculationID string) ([]ProventoRow, error) {
	rows := []ProventoRow{}
	err := vs.db.SelectContext(ctx, &rows, `SELECT
		id, calculation_id, coalesce(nome_provento, '') AS nome_provento, valor_calculado,
		coalesce(natureza_da_verba, '') AS natureza_da_verba, coalesce(legislacao, '') AS legislacao,
		coalesce(exemplos_aplicaveis, '') AS exemplos_aplicaveis, coalesce(formula_sugerida, '') AS formula_sugerida,
		coalesce(parametro_calculo, '') AS parametro_calculo, json_completo,
		coalesce(memoria_calculo, '') AS memoria_calculo, inserted_at
	FROM proventos
	WHERE calculation_id = $1
	ORDER BY id`, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proventos for calculation %s: %w", calculationID, err)
	}
	return rows, nil
}

func (vs *VerbaStore) ListDescontos(ctx context.Context, calculationID string) ([]DescontoRow, error) {
	rows := []DescontoRow{}
	err := vs.db.SelectContext(ctx, &rows, `SELECT
		id, calculation_id, coalesce(nome_desconto, '') AS nome_desconto, valor_calculado,
		coalesce(natureza_da_verba, '') AS natureza_da_verba, coalesce(legislacao, '') AS legislacao,
		coalesce(exemplos_aplicaveis, '') AS exemplos_aplicaveis, coalesce(formula_sugerida, '') AS formula_sugerida,
		coalesce(parametro_calculo, '') AS parametro_calculo, json_completo,
		coalesce(memoria_calculo, '') AS memoria_calculo, inserted_at
	FROM descontos
	WHERE calculation_id = $1
	ORDER BY id`, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list descontos for calculation %s: %w", calculationID, err)
	}
	return rows, nil
}

// InTx runs fn against a store bound to a single transaction. The transaction
// is committed when fn returns nil and rolled back otherwise.
func (vs *VerbaStore) InTx(ctx context.Context, fn func(tx VerbaWriter) error) error {
	if vs.conn == nil {
		return fmt.Errorf("verba store is already bound to a transaction")
	}
	tx, err := vs.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&VerbaStore{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
