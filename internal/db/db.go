package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// New opens a pool for driver "postgres" (lib/pq) or "pgx" (pgx stdlib).
func New(driver, addr string, maxOpenConns, maxIdleConns int, maxIdleTime string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "postgres"
	}
	db, err := sqlx.Open(driver, addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	duration, err := time.ParseDuration(maxIdleTime)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.SetConnMaxIdleTime(duration)

	return db, nil
}
