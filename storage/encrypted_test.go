package storage_test

import (
	"context"
	"testing"

	"github.com/guireq/libreria-java-books/storage"
	"github.com/guireq/libreria-java-books/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestEncryptedStore(t *testing.T) {
	s, err := storage.NewEncryptedStore(storage.NewMemoryStore(), "correct horse battery staple")
	require.NoError(t, err)
	storagetest.Run(t, s)
}

func TestEncryptedStore_CiphertextAtRest(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemoryStore()
	s, err := storage.NewEncryptedStore(inner, "secret")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, storage.KeyRefreshToken, "refresh-me"))
	raw, err := inner.Get(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	require.NotContains(t, raw, "refresh-me")

	v, err := s.Get(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "refresh-me", v)
}

func TestEncryptedStore_Tampering(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemoryStore()
	s, err := storage.NewEncryptedStore(inner, "secret")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, storage.KeyAccessToken, "A"))

	t.Run("wrong secret", func(t *testing.T) {
		other, err := storage.NewEncryptedStore(inner, "other")
		require.NoError(t, err)
		_, err = other.Get(ctx, storage.KeyAccessToken)
		require.Error(t, err)
	})

	t.Run("value moved to another key", func(t *testing.T) {
		raw, err := inner.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.NoError(t, inner.Set(ctx, storage.KeyRefreshToken, raw))
		_, err = s.Get(ctx, storage.KeyRefreshToken)
		require.Error(t, err)
	})

	t.Run("not base64", func(t *testing.T) {
		require.NoError(t, inner.Set(ctx, storage.KeyTokenExpiry, "%%%"))
		_, err := s.Get(ctx, storage.KeyTokenExpiry)
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		require.NoError(t, inner.Set(ctx, storage.KeyCodeVerifier, "AAAA"))
		_, err := s.Get(ctx, storage.KeyCodeVerifier)
		require.Error(t, err)
	})
}

func TestNewEncryptedStore_EmptySecret(t *testing.T) {
	_, err := storage.NewEncryptedStore(storage.NewMemoryStore(), "")
	require.Error(t, err)
}
