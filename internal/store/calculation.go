package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type CalculationStore struct {
	db Queryer
}

// GetAIResponse returns the stored resposta_ia column as raw JSON. A missing
// calculation yields ErrNotFound; a NULL column yields a nil message.
func (cs *CalculationStore) GetAIResponse(ctx context.Context, calculationID string) (json.RawMessage, error) {
	var resposta []byte
	err := cs.db.GetContext(ctx, &resposta, `SELECT resposta_ia FROM calculos WHERE id = $1`, calculationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ai response for calculation %s: %w", calculationID, err)
	}
	return json.RawMessage(resposta), nil
}

// SaveAIResponse overwrites resposta_ia. The value must be valid JSON, text
// answers are stored as JSON strings.
func (cs *CalculationStore) SaveAIResponse(ctx context.Context, calculationID string, resposta json.RawMessage) error {
	result, err := cs.db.ExecContext(ctx,
		`UPDATE calculos SET resposta_ia = $2, updated_at = now() WHERE id = $1`,
		calculationID, []byte(resposta))
	if err != nil {
		return fmt.Errorf("failed to save ai response for calculation %s: %w", calculationID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (cs *CalculationStore) ClearAIResponse(ctx context.Context, calculationID string) error {
	_, err := cs.db.ExecContext(ctx,
		`UPDATE calculos SET resposta_ia = NULL, updated_at = now() WHERE id = $1`,
		calculationID)
	if err != nil {
		return fmt.Errorf("failed to clear ai response for calculation %s: %w", calculationID, err)
	}
	return nil
}
