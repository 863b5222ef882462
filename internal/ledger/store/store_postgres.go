package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"assetledger/internal/ledger/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
	txcontext "assetledger/pkg/platform/tx"
)

// PostgresStore writes ledger entries to transition_records. The application
// role has INSERT and SELECT only; the absence of UPDATE/DELETE grants is
// part of the append-only contract.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres wraps a database handle.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const recordColumns = `id, asset_id, from_stage, to_stage, recorded_at, actor, method, notes, supersedes`

func (s *PostgresStore) Append(ctx context.Context, rec *models.TransitionRecord) error {
	query := `
		INSERT INTO transition_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var supersedes any
	if rec.Supersedes != nil {
		supersedes = *rec.Supersedes
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.AssetID.String(), rec.FromStage.String(), rec.ToStage.String(),
		rec.RecordedAt, rec.Actor, rec.Method.String(), rec.Notes, supersedes,
	)
	if err != nil {
		return fmt.Errorf("insert transition record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.TransitionRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM transition_records WHERE id = $1`
	rec, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transition record %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select transition record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByAsset(ctx context.Context, assetID domain.AssetID) ([]*models.TransitionRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM transition_records
		WHERE asset_id = $1
		ORDER BY recorded_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, assetID.String())
	if err != nil {
		return nil, fmt.Errorf("query transition records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.TransitionRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM transition_records ORDER BY recorded_at, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transition records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.TransitionRecord, error) {
	var (
		rec        models.TransitionRecord
		assetID    string
		fromStage  string
		toStage    string
		method     string
		supersedes *uuid.UUID
	)
	err := row.Scan(&rec.ID, &assetID, &fromStage, &toStage, &rec.RecordedAt,
		&rec.Actor, &method, &rec.Notes, &supersedes)
	if err != nil {
		return nil, err
	}
	rec.AssetID = domain.AssetID(assetID)
	rec.FromStage = domain.Stage(fromStage)
	rec.ToStage = domain.Stage(toStage)
	rec.Method = domain.Method(method)
	rec.Supersedes = supersedes
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*models.TransitionRecord, error) {
	var out []*models.TransitionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transition record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transition records: %w", err)
	}
	return out, nil
}
