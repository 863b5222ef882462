package identifier

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "assetledger/pkg/platform/tx"
)

// PostgresSequenceStore keeps one row per (prefix, day) in asset_sequences.
// The upsert increments under the row lock, so concurrent allocators for the
// same key serialize on the database and never receive overlapping ranges.
type PostgresSequenceStore struct {
	db *sql.DB
}

// NewPostgresSequenceStore wraps a database handle.
func NewPostgresSequenceStore(db *sql.DB) *PostgresSequenceStore {
	return &PostgresSequenceStore{db: db}
}

type dbExecutor interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresSequenceStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresSequenceStore) NextRange(ctx context.Context, key Key, count, max int) (int, error) {
	if count < 1 {
		return 0, fmt.Errorf("count must be positive, got %d", count)
	}
	if count > max {
		return 0, fmt.Errorf("%s-%s requested %d, max %d: %w", key.Prefix, key.DateStamp, count, max, ErrExhausted)
	}

	// The WHERE guard on the update arm makes an over-limit allocation match
	// zero rows instead of committing a wrapped counter.
	query := `
		INSERT INTO asset_sequences (prefix, date_stamp, last_seq)
		VALUES ($1, $2, $3)
		ON CONFLICT (prefix, date_stamp)
		DO UPDATE SET last_seq = asset_sequences.last_seq + $3
		WHERE asset_sequences.last_seq + $3 <= $4
		RETURNING last_seq
	`
	var end int
	err := s.execer(ctx).QueryRowContext(ctx, query, key.Prefix, key.DateStamp, count, max).Scan(&end)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%s-%s cannot allocate %d more: %w", key.Prefix, key.DateStamp, count, ErrExhausted)
	}
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s-%s: %w", key.Prefix, key.DateStamp, err)
	}
	return end - count + 1, nil
}
