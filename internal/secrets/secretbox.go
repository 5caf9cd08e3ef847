// Package secrets encrypts notification channel credentials at rest.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	nonceSize = 24
)

var ErrDecrypt = errors.New("secrets: decryption failed")

// Box seals and opens opaque blobs.
type Box interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type SecretBox struct {
	key [KeySize]byte
}

func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secrets: key must be %d bytes, got %d", KeySize, len(key))
	}
	b := &SecretBox{}
	copy(b.key[:], key)
	return b, nil
}

// NewSecretBoxFromBase64 decodes a standard base64 key, as stored in SECRETBOX_KEY.
func NewSecretBoxFromBase64(encoded string) (*SecretBox, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secrets: decode key: %w", err)
	}
	return NewSecretBox(key)
}

// Seal returns nonce || ciphertext.
func (b *SecretBox) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("secrets: nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

func (b *SecretBox) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return out, nil
}

// SealCredentials encodes a credential map and seals it.
func SealCredentials(box Box, creds map[string]string) ([]byte, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	return box.Seal(raw)
}

// OpenCredentials is the inverse of SealCredentials.
func OpenCredentials(box Box, sealed []byte) (map[string]string, error) {
	raw, err := box.Open(sealed)
	if err != nil {
		return nil, err
	}
	creds := map[string]string{}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("secrets: decode credentials: %w", err)
	}
	return creds, nil
}
