// Package cryptoutil seals provider token material before it is written to the identity store.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Encryptor seals and opens token strings stored in the accounts table.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(stored string) (string, error)
}

// Versioned prefix so the algorithm or key can rotate without a data migration.
const sealedPrefixV1 = "enc:v1:"

// AESGCMEncryptor implements Encryptor using AES-256-GCM.
type AESGCMEncryptor struct {
	aead cipher.AEAD
}

// NewAESGCMEncryptor constructs an AESGCMEncryptor. Key must be 32 bytes (AES-256).
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMEncryptor{aead: aead}, nil
}

// NewAESGCMEncryptorFromString derives the key from a configured secret.
// A 64-char hex string is used as the raw key; anything else is hashed with SHA-256.
func NewAESGCMEncryptorFromString(secret string) (*AESGCMEncryptor, error) {
	if secret == "" {
		return nil, errors.New("encryption key is required")
	}
	if decoded, err := hex.DecodeString(secret); err == nil && len(decoded) == 32 {
		return NewAESGCMEncryptor(decoded)
	}
	sum := sha256.Sum256([]byte(secret))
	return NewAESGCMEncryptor(sum[:])
}

// Encrypt seals plaintext with a random nonce and returns a versioned base64 string.
func (e *AESGCMEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefixV1 + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Values without the sealed prefix
// were written before encryption was configured and are returned as stored.
func (e *AESGCMEncryptor) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefixV1) {
		return stored, nil
	}
	data, err := base64.StdEncoding.DecodeString(stored[len(sealedPrefixV1):])
	if err != nil {
		return "", fmt.Errorf("decode sealed token: %w", err)
	}
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("sealed token too short")
	}
	pt, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("open sealed token: %w", err)
	}
	return string(pt), nil
}

// PlainEncryptor stores token material unchanged. Used when no key is configured.
type PlainEncryptor struct{}

func (PlainEncryptor) Encrypt(plaintext string) (string, error) { return plaintext, nil }

func (PlainEncryptor) Decrypt(stored string) (string, error) {
	if strings.HasPrefix(stored, sealedPrefixV1) {
		return "", errors.New("token is sealed but no encryption key is configured")
	}
	return stored, nil
}

// SealPtr applies Encrypt to an optional value.
func SealPtr(enc Encryptor, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	out, err := enc.Encrypt(*v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenPtr applies Decrypt to an optional value.
func OpenPtr(enc Encryptor, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	out, err := enc.Decrypt(*v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
