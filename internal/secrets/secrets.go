// Package secrets stores certificate passphrases and private-key material
// in the OS keyring, falling back to an encrypted database column when no
// keyring is available.
package secrets

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/as2gw/gateway/internal/logging"
	"github.com/as2gw/gateway/internal/vault"
	"github.com/rs/zerolog"
	gokeyring "github.com/zalando/go-keyring"
)

const serviceName = "as2gw"

// ErrNotFound is returned when no secret is stored for a key.
var ErrNotFound = errors.New("secret not found")

// Store provides secure storage for certificate secrets.
type Store struct {
	db             *sql.DB
	encryptor      *vault.Encryptor
	keyringEnabled bool
	log            zerolog.Logger
}

// NewStore creates a secret store, preferring the OS keyring and falling
// back to an encrypted database column when the keyring is unavailable.
func NewStore(db *sql.DB, dataDir string) (*Store, error) {
	log := logging.WithComponent("secrets")

	encryptor, err := vault.NewEncryptor(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	keyringEnabled := testKeyring()
	if keyringEnabled {
		log.Info().Msg("OS keyring available, using as primary secret storage")
	} else {
		log.Warn().Msg("OS keyring not available, using encrypted database storage")
	}

	return &Store{
		db:             db,
		encryptor:      encryptor,
		keyringEnabled: keyringEnabled,
		log:            log,
	}, nil
}

func testKeyring() bool {
	testKey := "as2gw-test-keyring-check"
	if err := gokeyring.Set(serviceName, testKey, "test"); err != nil {
		return false
	}
	gokeyring.Delete(serviceName, testKey)
	return true
}

// Set stores a secret under key (typically "cert:<id>:passphrase" or
// "cert:<id>:private_key").
func (s *Store) Set(key, value string) error {
	if value == "" {
		return nil
	}

	if s.keyringEnabled {
		if err := gokeyring.Set(serviceName, key, value); err == nil {
			s.log.Debug().Str("key", key).Msg("secret stored in OS keyring")
			s.clearDB(key)
			return nil
		}
		s.log.Warn().Str("key", key).Msg("failed to store in OS keyring, using fallback")
	}

	encrypted, err := s.encryptor.Encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO secrets (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, encrypted,
	)
	if err != nil {
		return fmt.Errorf("failed to store encrypted secret: %w", err)
	}

	s.log.Debug().Str("key", key).Msg("secret stored in encrypted database")
	return nil
}

// Get retrieves a secret previously stored under key.
func (s *Store) Get(key string) (string, error) {
	if s.keyringEnabled {
		value, err := gokeyring.Get(serviceName, key)
		if err == nil {
			return value, nil
		}
		if err != gokeyring.ErrNotFound {
			s.log.Warn().Str("key", key).Msg("error reading from OS keyring, trying fallback")
		}
	}

	var encrypted sql.NullString
	err := s.db.QueryRow("SELECT value FROM secrets WHERE key = ?", key).Scan(&encrypted)
	if err == sql.ErrNoRows || (err == nil && !encrypted.Valid) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query secret: %w", err)
	}

	value, err := s.encryptor.Decrypt(encrypted.String)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}
	return value, nil
}

// Delete removes a secret from both the keyring and the database fallback.
func (s *Store) Delete(key string) error {
	if s.keyringEnabled {
		gokeyring.Delete(serviceName, key)
	}
	s.clearDB(key)
	return nil
}

func (s *Store) clearDB(key string) {
	s.db.Exec("DELETE FROM secrets WHERE key = ?", key)
}

// IsKeyringEnabled returns whether the OS keyring is being used.
func (s *Store) IsKeyringEnabled() bool {
	return s.keyringEnabled
}
