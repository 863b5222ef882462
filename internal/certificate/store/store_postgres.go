package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"assetledger/internal/certificate/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
	txcontext "assetledger/pkg/platform/tx"
)

// PostgresStore persists artifacts in the artifacts table. Asset and source
// transition references are stored as arrays; the covering index on
// asset_ids keeps the active-certificate lookup cheap.
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

const artifactColumns = `id, kind, number, asset_ids, issued_at, issued_by, source_transition_ids, document_path, revoked_at, revoked_by, revoke_reason`

func (s *PostgresStore) Create(ctx context.Context, a *models.Artifact) error {
	query := `
		INSERT INTO artifacts (` + artifactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	assetIDs := make([]string, len(a.AssetIDs))
	for i, id := range a.AssetIDs {
		assetIDs[i] = id.String()
	}
	sourceIDs := make([]string, len(a.SourceTransitionIDs))
	for i, id := range a.SourceTransitionIDs {
		sourceIDs[i] = id.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		a.ID, a.Kind.String(), a.Number, pq.Array(assetIDs), a.IssuedAt, a.IssuedBy,
		pq.Array(sourceIDs), a.DocumentPath, a.RevokedAt, a.RevokedBy, a.RevokeReason,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("artifact %s already exists: %w", a.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE id = $1`
	a, err := scanArtifact(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select artifact: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) FindActiveIndividual(ctx context.Context, assetID domain.AssetID) (*models.Artifact, error) {
	query := `
		SELECT ` + artifactColumns + `
		FROM artifacts
		WHERE kind = $1 AND revoked_at IS NULL AND $2 = ANY(asset_ids)
	`
	a, err := scanArtifact(s.execer(ctx).QueryRowContext(ctx, query,
		domain.ArtifactIndividualCertificate.String(), assetID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active certificate for %s: %w", assetID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select active certificate: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context, kind domain.ArtifactKind) ([]*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts`
	var args []any
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind.String())
	}
	query += ` ORDER BY issued_at, number`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []*models.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, id uuid.UUID, by, reason string, at time.Time) error {
	query := `
		UPDATE artifacts
		SET revoked_at = $2, revoked_by = $3, revoke_reason = $4
		WHERE id = $1 AND revoked_at IS NULL
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, id, at, by, reason)
	if err != nil {
		return fmt.Errorf("revoke artifact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, ferr := s.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return fmt.Errorf("artifact %s: %w", id, sentinel.ErrAlreadyUsed)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	var (
		a         models.Artifact
		kind      string
		assetIDs  []string
		sourceIDs []string
		revokedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &kind, &a.Number, pq.Array(&assetIDs), &a.IssuedAt, &a.IssuedBy,
		pq.Array(&sourceIDs), &a.DocumentPath, &revokedAt, &a.RevokedBy, &a.RevokeReason)
	if err != nil {
		return nil, err
	}
	a.Kind = domain.ArtifactKind(kind)
	for _, id := range assetIDs {
		a.AssetIDs = append(a.AssetIDs, domain.AssetID(id))
	}
	for _, raw := range sourceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse source transition id %q: %w", raw, err)
		}
		a.SourceTransitionIDs = append(a.SourceTransitionIDs, id)
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		a.RevokedAt = &t
	}
	return &a, nil
}
