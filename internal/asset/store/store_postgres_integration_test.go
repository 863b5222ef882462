//go:build integration

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetledger/internal/asset/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	schema, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	pc := containers.NewPostgresContainer(t, schema)
	store := NewPostgres(pc.DB)
	ctx := context.Background()
	now := time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC)

	newAsset := func(id string) *models.Asset {
		a, err := models.NewAsset(domain.AssetID(id), "cabinet", "SN-1", domain.ConditionUsedGood, "", now)
		require.NoError(t, err)
		return a
	}

	t.Run("create and get round-trip", func(t *testing.T) {
		a := newAsset("CAB-20250107-0001")
		require.NoError(t, store.Create(ctx, a))

		got, err := store.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "cabinet", got.CategoryCode)
		assert.Equal(t, domain.StageIntake, got.Stage)
		assert.True(t, got.IntakeAt.Equal(now))
	})

	t.Run("duplicate create is a conflict", func(t *testing.T) {
		err := store.Create(ctx, newAsset("CAB-20250107-0001"))
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := store.Get(ctx, "CAB-20250107-9999")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("put updates the snapshot", func(t *testing.T) {
		a, err := store.Get(ctx, "CAB-20250107-0001")
		require.NoError(t, err)
		a.ApplyStage(domain.StageDestructionPending, now.Add(time.Hour))
		require.NoError(t, store.Put(ctx, a))

		got, err := store.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageDestructionPending, got.Stage)
	})

	t.Run("put unknown", func(t *testing.T) {
		err := store.Put(ctx, newAsset("CAB-20250107-9999"))
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("query filters and orders by id", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newAsset("CAB-20250107-0003")))
		require.NoError(t, store.Create(ctx, newAsset("CAB-20250107-0002")))

		got, err := store.Query(ctx, Filter{CategoryCode: "cabinet", Stage: domain.StageIntake})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domain.AssetID("CAB-20250107-0002"), got[0].ID)
		assert.Equal(t, domain.AssetID("CAB-20250107-0003"), got[1].ID)
	})

	t.Run("lock requires a transaction", func(t *testing.T) {
		err := store.LockForUpdate(ctx, []domain.AssetID{"CAB-20250107-0001"})
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("lock inside a transaction", func(t *testing.T) {
		runner := tx.NewRunner(pc.DB)
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			return store.LockForUpdate(ctx, []domain.AssetID{"CAB-20250107-0001", "CAB-20250107-0002"})
		})
		require.NoError(t, err)
	})

	t.Run("transaction rollback discards writes", func(t *testing.T) {
		runner := tx.NewRunner(pc.DB)
		sentinelErr := sentinel.ErrInvalidState
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			if err := store.Create(ctx, newAsset("CAB-20250107-0050")); err != nil {
				return err
			}
			return sentinelErr
		})
		require.ErrorIs(t, err, sentinelErr)

		_, err = store.Get(ctx, "CAB-20250107-0050")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
