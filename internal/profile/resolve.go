package profile

import (
	"crypto/x509"
	"fmt"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/secrets"
)

// ResolvedCert bundles a Certificate record's parsed chain and, for a
// private certificate, its private key — the shape every C1 crypto call
// actually consumes.
type ResolvedCert struct {
	Record   *as2model.Certificate
	Chain    []*x509.Certificate
	PrivateKey interface{}
}

// ResolveCertificate loads a Certificate by ID and parses its PEM chain,
// additionally unlocking the private key via the secret store when the
// certificate is a private (sign/decrypt) bundle.
func ResolveCertificate(store *Store, secretStore *secrets.Store, certID string) (*ResolvedCert, error) {
	cert, err := store.GetCertificate(certID)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate %s: %w", certID, err)
	}
	if cert == nil {
		return nil, fmt.Errorf("certificate %s not found", certID)
	}

	pemChain := cert.CertPEM + cert.CAPEM
	chain, err := as2crypto.ParseCertChain(pemChain)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate chain for %s: %w", certID, err)
	}

	resolved := &ResolvedCert{Record: cert, Chain: chain}

	if cert.Kind == as2model.CertKindPrivate {
		keyPEM := cert.PrivateKeyPEM
		if keyPEM == "" && secretStore != nil {
			keyPEM, err = secretStore.Get("cert:" + certID + ":private_key")
			if err != nil {
				return nil, fmt.Errorf("failed to unlock private key for %s: %w", certID, err)
			}
		}
		key, err := as2crypto.ParsePrivateKey(keyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key for %s: %w", certID, err)
		}
		resolved.PrivateKey = key
	}

	return resolved, nil
}
