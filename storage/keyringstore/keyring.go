// Package keyringstore keeps tokens in the operating system keychain.
package keyringstore

import (
	"context"

	autherrors "github.com/guireq/libreria-java-books/internal/errors"
	"github.com/guireq/libreria-java-books/storage"
	"github.com/zalando/go-keyring"
)

type Store struct {
	service string
}

var _ storage.Store = (*Store)(nil)

func New(service string) *Store {
	return &Store{service: service}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	v, err := keyring.Get(s.service, key)
	if autherrors.Is(err, keyring.ErrNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", autherrors.Wrapf(err, "[keyringstore Get] %s", key)
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return autherrors.Wrapf(err, "[keyringstore Set] %s", key)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !autherrors.Is(err, keyring.ErrNotFound) {
		return autherrors.Wrapf(err, "[keyringstore Delete] %s", key)
	}
	return nil
}
