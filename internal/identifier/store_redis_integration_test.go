//go:build integration

package identifier

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetledger/pkg/testutil/containers"
)

func TestRedisSequenceStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	key := Key{Prefix: "CAB", DateStamp: "20250107"}

	t.Run("ranges are consecutive", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		store := NewRedisSequenceStore(rc.Client)

		first, err := store.NextRange(ctx, key, 3, 9999)
		require.NoError(t, err)
		assert.Equal(t, 1, first)

		second, err := store.NextRange(ctx, key, 2, 9999)
		require.NoError(t, err)
		assert.Equal(t, 4, second)
	})

	t.Run("exhaustion rolls the counter back", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		store := NewRedisSequenceStore(rc.Client)

		_, err := store.NextRange(ctx, key, 9998, 9999)
		require.NoError(t, err)

		_, err = store.NextRange(ctx, key, 5, 9999)
		require.ErrorIs(t, err, ErrExhausted)

		// The failed range must not burn numbers.
		next, err := store.NextRange(ctx, key, 1, 9999)
		require.NoError(t, err)
		assert.Equal(t, 9999, next)
	})

	t.Run("concurrent allocations never overlap", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		store := NewRedisSequenceStore(rc.Client)

		const workers = 8
		const perWorker = 5

		var mu sync.Mutex
		var starts []int
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				first, err := store.NextRange(ctx, key, perWorker, 9999)
				assert.NoError(t, err)
				mu.Lock()
				starts = append(starts, first)
				mu.Unlock()
			}()
		}
		wg.Wait()

		sort.Ints(starts)
		require.Len(t, starts, workers)
		for i, first := range starts {
			assert.Equal(t, 1+i*perWorker, first)
		}
	})
}
