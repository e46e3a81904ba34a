package as2crypto

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.mozilla.org/pkcs7"
)

// Verify checks a detached CMS signature against signedContent, trying
// the exact on-wire bytes first and, if that fails, a locally
// canonicalised retry of the same content (spec §4.1 Verify). Success
// on either path accepts the message — AS2 trust is established by
// partner certificate exchange, not by browser-style CA validation, so
// an unknown or self-signed signer is reported but not itself fatal.
func Verify(signedContent, signature []byte, canonicalize func([]byte) []byte) (*VerifyResult, error) {
	p7, err := parsePKCS7(signature)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signature: %w", err)
	}

	p7.Content = signedContent
	if result := verifyParsed(p7); result.Status != StatusInvalid {
		return result, nil
	}

	if canonicalize != nil {
		p7.Content = canonicalize(signedContent)
		if result := verifyParsed(p7); result.Status != StatusInvalid {
			return result, nil
		}
	}

	return verifyParsed(p7), nil
}

func parsePKCS7(data []byte) (*pkcs7.PKCS7, error) {
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

func decodeBase64Loose(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, data)
	return base64.StdEncoding.DecodeString(string(cleaned))
}

func verifyParsed(p7 *pkcs7.PKCS7) *VerifyResult {
	err := p7.Verify()
	subject := signerSubject(p7)
	signer := leafCert(p7)

	if err == nil {
		if isSelfSignedChain(p7) {
			return &VerifyResult{Status: StatusSelfSigned, SignerSubject: subject, SignerCert: signer, ErrorMessage: "self-signed certificate"}
		}
		return &VerifyResult{Status: StatusSigned, SignerSubject: subject, SignerCert: signer}
	}

	errStr := err.Error()
	if strings.Contains(errStr, "certificate signed by unknown authority") || strings.Contains(errStr, "x509: certificate") {
		if isExpiredChain(p7) {
			return &VerifyResult{Status: StatusExpiredCert, SignerSubject: subject, SignerCert: signer, ErrorMessage: "signer certificate has expired"}
		}
		if isSelfSignedChain(p7) {
			return &VerifyResult{Status: StatusSelfSigned, SignerSubject: subject, SignerCert: signer, ErrorMessage: "self-signed certificate"}
		}
		return &VerifyResult{Status: StatusUnknownSigner, SignerSubject: subject, SignerCert: signer, ErrorMessage: fmt.Sprintf("unverified signer: %v", err)}
	}

	return &VerifyResult{Status: StatusInvalid, SignerSubject: subject, SignerCert: signer, ErrorMessage: fmt.Sprintf("signature verification failed: %v", err)}
}

func signerSubject(p7 *pkcs7.PKCS7) string {
	if len(p7.Certificates) == 0 {
		return ""
	}
	return p7.Certificates[0].Subject.String()
}

func isSelfSignedChain(p7 *pkcs7.PKCS7) bool {
	leaf := leafCert(p7)
	if leaf == nil {
		return false
	}
	return IsSelfSigned(leaf)
}

func isExpiredChain(p7 *pkcs7.PKCS7) bool {
	now := time.Now()
	for _, cert := range p7.Certificates {
		if !cert.IsCA && now.After(cert.NotAfter) {
			return true
		}
	}
	return false
}

func leafCert(p7 *pkcs7.PKCS7) *x509.Certificate {
	for _, cert := range p7.Certificates {
		if !cert.IsCA {
			return cert
		}
	}
	if len(p7.Certificates) > 0 {
		return p7.Certificates[0]
	}
	return nil
}
