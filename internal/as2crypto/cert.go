package as2crypto

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ParseCertificate parses the first certificate found in PEM-encoded data.
func ParseCertificate(pemData string) (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM data found")
	}
	return x509.ParseCertificate(block.Bytes)
}

// ParseCertChain parses every CERTIFICATE block in PEM-encoded data, in
// order, used to build the full chain pkcs7.Encrypt sends to a partner.
func ParseCertChain(pemData string) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := []byte(pemData)
	for len(rest) > 0 {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificates found in PEM data")
	}
	return certs, nil
}

// ParsePrivateKey parses a PKCS#8 PEM-encoded private key.
func ParsePrivateKey(pemData string) (interface{}, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM data found")
	}
	return x509.ParsePKCS8PrivateKey(block.Bytes)
}

// Fingerprint returns the SHA-256 fingerprint of a DER-encoded certificate.
func Fingerprint(derBytes []byte) string {
	sum := sha256.Sum256(derBytes)
	return fmt.Sprintf("%x", sum)
}

// IsSelfSigned reports whether a certificate's issuer and subject are
// identical at the raw DER level.
func IsSelfSigned(cert *x509.Certificate) bool {
	return certEqual(cert.RawIssuer, cert.RawSubject)
}

func certEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SameCertificate reports whether two certificates are the same DER-encoded
// certificate, used to pin a verified signer against a partner's
// out-of-band registered certificate (spec §4.1: AS2 trust comes from
// certificate exchange, not CA validation).
func SameCertificate(a, b *x509.Certificate) bool {
	if a == nil || b == nil {
		return false
	}
	return certEqual(a.Raw, b.Raw)
}
