package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const encryptionInfo = "libreria-books token store v1"

// EncryptedStore encrypts values with XChaCha20-Poly1305 before handing them
// to the wrapped store. Keys are stored in the clear. The key name is bound
// as additional data so a value cannot be moved to another key.
type EncryptedStore struct {
	inner Store
	key   []byte
}

// NewEncryptedStore derives a 256-bit key from secret with HKDF-SHA256.
func NewEncryptedStore(inner Store, secret string) (*EncryptedStore, error) {
	if secret == "" {
		return nil, errors.New("[storage NewEncryptedStore] secret cannot be empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(encryptionInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("[storage NewEncryptedStore] derive key: %w", err)
	}
	return &EncryptedStore{inner: inner, key: key}, nil
}

func (s *EncryptedStore) Get(ctx context.Context, key string) (string, error) {
	encoded, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("[storage EncryptedStore.Get] decode %s: %w", key, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("[storage EncryptedStore.Get] cipher: %w", err)
	}
	if len(data) < aead.NonceSize() {
		return "", fmt.Errorf("[storage EncryptedStore.Get] ciphertext too short for %s", key)
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("[storage EncryptedStore.Get] decrypt %s: %w", key, err)
	}
	return string(plaintext), nil
}

func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return fmt.Errorf("[storage EncryptedStore.Set] cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("[storage EncryptedStore.Set] nonce: %w", err)
	}
	// [nonce][ciphertext]
	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
