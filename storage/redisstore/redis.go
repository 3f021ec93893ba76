// Package redisstore provides a Redis-backed token store.
package redisstore

import (
	"context"
	"errors"

	autherrors "github.com/guireq/libreria-java-books/internal/errors"
	"github.com/guireq/libreria-java-books/storage"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ storage.Store = (*Store)(nil)

// New connects to a single Redis node at addr.
func New(addr, keyPrefix string) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), keyPrefix)
}

// NewWithClient wraps an existing client. Useful for testing with miniredis.
func NewWithClient(client redis.UniversalClient, keyPrefix string) *Store {
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) key(k string) string {
	return s.keyPrefix + k
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", autherrors.Wrapf(err, "[redisstore Get] %s", key)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return autherrors.Wrapf(err, "[redisstore Set] %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return autherrors.Wrapf(err, "[redisstore Delete] %s", key)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
