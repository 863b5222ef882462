package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"assetledger/internal/asset/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
	txcontext "assetledger/pkg/platform/tx"
)

// PostgresStore persists asset snapshots in the assets table. Methods join an
// enclosing transaction when one is present in context, so lifecycle commits
// can span assets and ledger in a single unit.
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

const assetColumns = `id, category_code, serial_number, condition, stage, label_removed, intake_at, updated_at, notes`

func (s *PostgresStore) Create(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		a.ID.String(), a.CategoryCode, a.SerialNumber, a.Condition.String(),
		a.Stage.String(), a.LabelRemoved, a.IntakeAt, a.UpdatedAt, a.Notes,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("asset %s already exists: %w", a.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.AssetID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	a, err := scanAsset(s.execer(ctx).QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select asset: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Put(ctx context.Context, a *models.Asset) error {
	query := `
		UPDATE assets
		SET serial_number = $2, condition = $3, stage = $4, label_removed = $5,
		    updated_at = $6, notes = $7
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		a.ID.String(), a.SerialNumber, a.Condition.String(), a.Stage.String(),
		a.LabelRemoved, a.UpdatedAt, a.Notes,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("asset %s: %w", a.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]*models.Asset, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if len(f.IDs) > 0 {
		ids := make([]string, len(f.IDs))
		for i, id := range f.IDs {
			ids[i] = id.String()
		}
		add("id = ANY($%d)", pq.Array(ids))
	}
	if f.CategoryCode != "" {
		add("category_code = $%d", f.CategoryCode)
	}
	if f.Condition != "" {
		add("condition = $%d", f.Condition.String())
	}
	if f.Stage != "" {
		add("stage = $%d", f.Stage.String())
	}
	if !f.IntakeFrom.IsZero() {
		add("intake_at >= $%d", f.IntakeFrom)
	}
	if !f.IntakeTo.IsZero() {
		add("intake_at <= $%d", f.IntakeTo)
	}

	query := `SELECT ` + assetColumns + ` FROM assets`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var out []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

// LockForUpdate acquires row locks on the given assets inside the enclosing
// transaction. The ORDER BY matches the caller's sorted ID order so two
// overlapping batches always contend in the same sequence.
func (s *PostgresStore) LockForUpdate(ctx context.Context, ids []domain.AssetID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, ok := txcontext.From(ctx); !ok {
		return fmt.Errorf("LockForUpdate requires an enclosing transaction: %w", sentinel.ErrInvalidState)
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `SELECT id FROM assets WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(strIDs))
	if err != nil {
		return fmt.Errorf("lock assets: %w", err)
	}
	defer rows.Close()
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var (
		a         models.Asset
		id        string
		condition string
		stage     string
	)
	err := row.Scan(&id, &a.CategoryCode, &a.SerialNumber, &condition, &stage,
		&a.LabelRemoved, &a.IntakeAt, &a.UpdatedAt, &a.Notes)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AssetID(id)
	a.Condition = domain.Condition(condition)
	a.Stage = domain.Stage(stage)
	return &a, nil
}
