package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/budgetndiostory/bns-api/internal/data/cryptoutil"
)

// CreateEncryptor builds the AES-GCM encryptor that seals provider tokens on accounts.
// A 64-char hex key is used as-is; any other value is hashed to 32 bytes.
// An empty key stores tokens unchanged, which is only accepted in development.
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(key string, isDev bool, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	if key == "" {
		if !isDev {
			return nil, errors.New("TOKEN_ENCRYPTION_KEY is required outside development")
		}
		if logger != nil {
			logger.Warn("token encryption key is empty, provider tokens are stored unencrypted")
		}
		return cryptoutil.PlainEncryptor{}, nil
	}

	enc, err := cryptoutil.NewAESGCMEncryptorFromString(key)
	if err != nil {
		return nil, fmt.Errorf("create token encryptor: %w", err)
	}
	return enc, nil
}
