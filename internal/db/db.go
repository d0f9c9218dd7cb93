// Package db provides optional PostgreSQL persistence for delivery runs.
// Everything here is best-effort from the pipeline's point of view: a
// connection failure degrades to a warning, never an aborted run.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"certsender/internal/types"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateRun records the start of a delivery run and returns its ID.
func (db *DB) CreateRun(ctx context.Context, sheetPath, certDir string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO delivery_runs (sheet_path, cert_dir, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		sheetPath, certDir,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// SaveOutcome stores one per-recipient outcome for a run.
func (db *DB) SaveOutcome(ctx context.Context, runID uuid.UUID, o types.Outcome) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO delivery_outcomes (run_id, display_name, phone, file_path, status, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, o.Recipient.Display, o.Recipient.Phone, o.Recipient.FilePath, string(o.Status), o.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to save outcome for %s: %w", o.Recipient.Display, err)
	}
	return nil
}

// CompleteRun marks a delivery run as finished with its final counts.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, sent, notSent int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE delivery_runs
		 SET status = $1, sent_count = $2, not_sent_count = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, sent, notSent, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}
