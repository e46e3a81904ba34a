// Package as2crypto implements the CMS cryptographic primitives of the AS2
// engine: sign/verify, encrypt/decrypt, compress/decompress, and MIC
// hashing (spec §4.1).
package as2crypto

import "crypto/x509"

// SignatureStatus is the outcome of a signature verification.
type SignatureStatus string

const (
	StatusSigned        SignatureStatus = "signed"
	StatusInvalid       SignatureStatus = "invalid"
	StatusUnknownSigner SignatureStatus = "unknown_signer"
	StatusSelfSigned    SignatureStatus = "self_signed"
	StatusExpiredCert   SignatureStatus = "expired_cert"
)

// VerifyResult carries the outcome of Verify, including signer identity
// extracted regardless of trust-chain verification result.
type VerifyResult struct {
	Status        SignatureStatus
	SignerSubject string
	SignerCert    *x509.Certificate
	ErrorMessage  string
}

// Ok reports whether the signature should be accepted as valid for AS2
// purposes: signed, self-signed, or an untrusted chain all count, since
// AS2 trust is established out-of-band by certificate exchange, not by a
// browser-style CA chain.
func (r *VerifyResult) Ok() bool {
	switch r.Status {
	case StatusSigned, StatusSelfSigned, StatusUnknownSigner:
		return true
	default:
		return false
	}
}
