//go:build integration

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetledger/internal/certificate/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
	"assetledger/pkg/testutil/containers"
)

func TestPostgresArtifacts(t *testing.T) {
	schema, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	pc := containers.NewPostgresContainer(t, schema)
	store := NewPostgres(pc.DB)
	ctx := context.Background()
	now := time.Date(2025, 1, 7, 16, 0, 0, 0, time.UTC)

	artifact := func(kind domain.ArtifactKind, number string, assetIDs ...string) *models.Artifact {
		ids := make([]domain.AssetID, len(assetIDs))
		for i, id := range assetIDs {
			ids[i] = domain.AssetID(id)
		}
		return &models.Artifact{
			ID:                  uuid.New(),
			Kind:                kind,
			Number:              number,
			AssetIDs:            ids,
			IssuedAt:            now,
			IssuedBy:            "m.jones",
			SourceTransitionIDs: []uuid.UUID{uuid.New()},
			DocumentPath:        "certificates/" + number + ".txt",
		}
	}

	t.Run("create and find round-trip", func(t *testing.T) {
		a := artifact(domain.ArtifactIndividualCertificate, "CERT-TMU-20250107-0001", "TMU-20250107-0001")
		require.NoError(t, store.Create(ctx, a))

		got, err := store.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Number, got.Number)
		assert.Equal(t, a.AssetIDs, got.AssetIDs)
		assert.Equal(t, a.SourceTransitionIDs, got.SourceTransitionIDs)
		assert.Nil(t, got.RevokedAt)
	})

	t.Run("active individual lookup", func(t *testing.T) {
		got, err := store.FindActiveIndividual(ctx, "TMU-20250107-0001")
		require.NoError(t, err)
		assert.Equal(t, "CERT-TMU-20250107-0001", got.Number)

		_, err = store.FindActiveIndividual(ctx, "TMU-20250107-0099")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("batch certificates do not satisfy the individual lookup", func(t *testing.T) {
		b := artifact(domain.ArtifactBatchCertificate, "CERT-BATCH-20250107_160000", "TMU-20250107-0002")
		require.NoError(t, store.Create(ctx, b))

		_, err := store.FindActiveIndividual(ctx, "TMU-20250107-0002")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("revoke clears the active lookup", func(t *testing.T) {
		got, err := store.FindActiveIndividual(ctx, "TMU-20250107-0001")
		require.NoError(t, err)

		require.NoError(t, store.Revoke(ctx, got.ID, "m.jones", "numbering error", now.Add(time.Hour)))

		_, err = store.FindActiveIndividual(ctx, "TMU-20250107-0001")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		revoked, err := store.FindByID(ctx, got.ID)
		require.NoError(t, err)
		require.NotNil(t, revoked.RevokedAt)
		assert.Equal(t, "numbering error", revoked.RevokeReason)
	})

	t.Run("double revoke", func(t *testing.T) {
		list, err := store.List(ctx, domain.ArtifactIndividualCertificate)
		require.NoError(t, err)
		require.NotEmpty(t, list)

		err = store.Revoke(ctx, list[0].ID, "m.jones", "again", now.Add(2*time.Hour))
		require.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("revoke unknown", func(t *testing.T) {
		err := store.Revoke(ctx, uuid.New(), "m.jones", "missing", now)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list filters by kind", func(t *testing.T) {
		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		batch, err := store.List(ctx, domain.ArtifactBatchCertificate)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, domain.ArtifactBatchCertificate, batch[0].Kind)
	})
}
