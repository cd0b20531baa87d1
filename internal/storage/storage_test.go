package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSubstrate exercises the behaviour every Substrate must share
func testSubstrate(t *testing.T, s Substrate) {
	t.Helper()
	ctx := context.Background()
	prefix := fmt.Sprintf("t%d_", time.Now().UnixNano())

	t.Run("missing key", func(t *testing.T) {
		_, err := s.GetItem(ctx, prefix+"missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, prefix+"a", `{"v":1}`))
		val, err := s.GetItem(ctx, prefix+"a")
		require.NoError(t, err)
		assert.Equal(t, `{"v":1}`, val)

		require.NoError(t, s.SetItem(ctx, prefix+"a", `{"v":2}`))
		val, err = s.GetItem(ctx, prefix+"a")
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, val)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, s.SetItem(ctx, prefix+"gone", "x"))
		require.NoError(t, s.RemoveItem(ctx, prefix+"gone"))
		require.NoError(t, s.RemoveItem(ctx, prefix+"gone"))
		_, err := s.GetItem(ctx, prefix+"gone")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("list and multi remove", func(t *testing.T) {
		for _, k := range []string{"k1", "k2", "k3"} {
			require.NoError(t, s.SetItem(ctx, prefix+"batch_"+k, k))
		}

		keys, err := s.GetAllKeys(ctx)
		require.NoError(t, err)
		var ours []string
		for _, k := range keys {
			if len(k) > len(prefix+"batch_") && k[:len(prefix+"batch_")] == prefix+"batch_" {
				ours = append(ours, k)
			}
		}
		sort.Strings(ours)
		assert.Equal(t, []string{prefix + "batch_k1", prefix + "batch_k2", prefix + "batch_k3"}, ours)

		require.NoError(t, s.MultiRemove(ctx, ours[:2]))
		require.NoError(t, s.MultiRemove(ctx, nil))

		_, err = s.GetItem(ctx, prefix+"batch_k1")
		assert.True(t, errors.Is(err, ErrNotFound))
		val, err := s.GetItem(ctx, prefix+"batch_k3")
		require.NoError(t, err)
		assert.Equal(t, "k3", val)
	})
}
