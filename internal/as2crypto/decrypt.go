package as2crypto

import (
	"crypto/x509"
	"fmt"

	"go.mozilla.org/pkcs7"
)

// Decrypt parses CMS EnvelopedData (DER or base64-wrapped) and decrypts
// it with the given recipient certificate/private key pair (spec §4.1
// Decrypt).
func Decrypt(encrypted []byte, cert *x509.Certificate, privateKey interface{}) ([]byte, error) {
	p7, err := parseEnveloped(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to parse enveloped data: %w", err)
	}
	plaintext, err := p7.Decrypt(cert, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func parseEnveloped(data []byte) (*pkcs7.PKCS7, error) {
	p7, err := pkcs7.Parse(data)
	if err == nil {
		return p7, nil
	}
	decoded, decErr := decodeBase64Loose(data)
	if decErr != nil {
		return nil, err
	}
	return pkcs7.Parse(decoded)
}
