// Package storagetest holds behaviour checks shared by every storage.Store.
package storagetest

import (
	"context"
	"testing"

	"github.com/guireq/libreria-java-books/storage"
	"github.com/stretchr/testify/require"
)

// Run exercises the Store contract against s. s must start empty.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, storage.KeyAccessToken)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, storage.KeyAccessToken, "A"))
		v, err := s.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "A", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, storage.KeyAccessToken, "B"))
		v, err := s.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "B", v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, storage.KeyAccessToken))
		_, err := s.Get(ctx, storage.KeyAccessToken)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete missing key", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, storage.KeyRefreshToken))
		require.NoError(t, s.Delete(ctx, storage.KeyRefreshToken))
	})
}
