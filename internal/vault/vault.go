// Package vault provides at-rest encryption for secrets that fall back to
// database storage when the OS keyring is unavailable.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	keyFileName = "vault.key"
	keyLen      = 32
	saltLen     = 16
	nonceLen    = 12
)

// Encryptor encrypts and decrypts small secrets (certificate passphrases,
// private keys) for storage in the database fallback path. Each instance
// holds a machine-local master key, generated on first use and persisted
// under dataDir with owner-only permissions.
type Encryptor struct {
	masterKey []byte
}

// NewEncryptor loads or creates the master key under dataDir.
func NewEncryptor(dataDir string) (*Encryptor, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	keyPath := filepath.Join(dataDir, keyFileName)

	if raw, err := os.ReadFile(keyPath); err == nil && len(raw) == keyLen {
		return &Encryptor{masterKey: raw}, nil
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate vault salt: %w", err)
	}
	random := make([]byte, keyLen)
	if _, err := io.ReadFull(rand.Reader, random); err != nil {
		return nil, fmt.Errorf("failed to generate vault key: %w", err)
	}

	masterKey, err := scrypt.Key(random, salt, 1<<15, 8, 1, keyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}

	if err := os.WriteFile(keyPath, masterKey, 0600); err != nil {
		return nil, fmt.Errorf("failed to persist vault key: %w", err)
	}

	return &Encryptor{masterKey: masterKey}, nil
}

// Encrypt returns a base64-encoded AES-256-GCM ciphertext of plaintext.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.masterKey)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to init GCM: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(e.masterKey)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to init GCM: %w", err)
	}

	if len(raw) < nonceLen {
		return "", errors.New("ciphertext too short")
	}
	nonce, ct := raw[:nonceLen], raw[nonceLen:]

	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
