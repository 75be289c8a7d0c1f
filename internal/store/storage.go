package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("record not found")

// Queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Storage struct {
	Calculations interface {
		GetAIResponse(ctx context.Context, calculationID string) (json.RawMessage, error)
		SaveAIResponse(ctx context.Context, calculationID string, resposta json.RawMessage) error
		ClearAIResponse(ctx context.Context, calculationID string) error
	}

	Verbas interface {
		VerbaWriter
		ListProventos(ctx context.Context, calculationID string) ([]ProventoRow, error)
		ListDescontos(ctx context.Context, calculationID string) ([]DescontoRow, error)
		InTx(ctx context.Context, fn func(tx VerbaWriter) error) error
	}
}

// VerbaWriter is the write side of the verbas tables, usable inside or
// outside a transaction.
type VerbaWriter interface {
	DeleteProventos(ctx context.Context, calculationID string) (int64, error)
	DeleteDescontos(ctx context.Context, calculationID string) (int64, error)
	InsertProvento(ctx context.Context, row *ProventoRow) error
	InsertDesconto(ctx context.Context, row *DescontoRow) error
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Calculations: &CalculationStore{db: db},
		Verbas:       &VerbaStore{db: db, conn: db},
	}
}
