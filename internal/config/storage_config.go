package config

// StorageKind names the backend used for the durable token store.
type StorageKind string

const (
	StorageMemory  StorageKind = "memory"
	StorageSQLite  StorageKind = "sqlite"
	StorageRedis   StorageKind = "redis"
	StorageKeyring StorageKind = "keyring"
)

type StorageConfig interface {
	GetStorageKind() StorageKind
	GetSQLitePath() string
	GetRedisAddr() string
	GetRedisKeyPrefix() string
	GetKeyringService() string
	GetEncryptionSecret() string
}

var _ StorageConfig = EnvVars{}

func (e EnvVars) GetStorageKind() StorageKind {
	return StorageKind(e.get("TOKEN_STORE", string(StorageSQLite)))
}

func (e EnvVars) GetSQLitePath() string {
	return e.get("TOKEN_STORE_PATH", "./data/tokens.db")
}

func (e EnvVars) GetRedisAddr() string {
	return e.get("REDIS_ADDR", "localhost:6379")
}

func (e EnvVars) GetRedisKeyPrefix() string {
	return e.get("REDIS_KEY_PREFIX", "libreria:auth:")
}

func (e EnvVars) GetKeyringService() string {
	return e.get("KEYRING_SERVICE", "libreria-books")
}

// GetEncryptionSecret returns the secret used to encrypt tokens at rest.
// Empty disables encryption.
func (e EnvVars) GetEncryptionSecret() string {
	return e.get("TOKEN_ENCRYPTION_SECRET", "")
}
