// Package tokenstore opens the durable token store selected by configuration.
package tokenstore

import (
	"fmt"

	"github.com/guireq/libreria-java-books/internal/config"
	"github.com/guireq/libreria-java-books/storage"
	"github.com/guireq/libreria-java-books/storage/keyringstore"
	"github.com/guireq/libreria-java-books/storage/redisstore"
	"github.com/guireq/libreria-java-books/storage/sqlitestore"
)

// Open returns the configured store, wrapped in an EncryptedStore when an
// encryption secret is set. The returned close func releases the backend.
func Open(cfg config.StorageConfig) (storage.Store, func() error, error) {
	var (
		store   storage.Store
		closeFn = func() error { return nil }
	)

	switch kind := cfg.GetStorageKind(); kind {
	case config.StorageMemory:
		store = storage.NewMemoryStore()
	case config.StorageSQLite:
		s, err := sqlitestore.Open(cfg.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	case config.StorageRedis:
		s := redisstore.New(cfg.GetRedisAddr(), cfg.GetRedisKeyPrefix())
		store, closeFn = s, s.Close
	case config.StorageKeyring:
		store = keyringstore.New(cfg.GetKeyringService())
	default:
		return nil, nil, fmt.Errorf("[tokenstore Open] unknown token store %q", kind)
	}

	if secret := cfg.GetEncryptionSecret(); secret != "" {
		encrypted, err := storage.NewEncryptedStore(store, secret)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		store = encrypted
	}
	return store, closeFn, nil
}
