// Package as2err defines the error kinds surfaced by the AS2 engine and
// their mapping onto MDN advisory status strings.
package as2err

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure in the inbound or MDN pipeline.
type Kind int

const (
	// Unexpected covers any uncaught failure.
	Unexpected Kind = iota
	// PartnerNotFound means AS2-From/AS2-To did not resolve to a known profile.
	PartnerNotFound
	// InsufficientSecurity means the partner's profile demanded encryption
	// or a signature that the message did not carry.
	InsufficientSecurity
	// DecryptionFailed means a CMS enveloped-data part could not be opened.
	DecryptionFailed
	// InvalidSignature means neither the raw-bytes nor the canonicalised
	// verification path accepted the signature.
	InvalidSignature
	// DecompressionFailed means a CMS compressed-data payload was corrupt.
	DecompressionFailed
	// DuplicateDocument means a prior Message exists for the same
	// org/partner/message-id triple.
	DuplicateDocument
	// UnsupportedAlgorithm means the requested signature or encryption
	// algorithm is not implemented by the crypto primitives.
	UnsupportedAlgorithm
	// CertificateError covers malformed, expired, or missing certificates.
	CertificateError
)

// advStatus is the single table mapping a Kind to the MDN Disposition
// advisory status string from spec §7. This is the only place that table
// is allowed to be consulted or changed.
var advStatus = map[Kind]string{
	Unexpected:            "unexpected-processing-error",
	PartnerNotFound:       "unknown-trading-partner",
	InsufficientSecurity:  "insufficient-message-security",
	DecryptionFailed:      "decryption-failed",
	InvalidSignature:      "integrity-check-failed",
	DecompressionFailed:   "decompression-failed",
	DuplicateDocument:     "duplicate-document",
	UnsupportedAlgorithm:  "unsupported-algorithm",
	CertificateError:      "certificate-error",
}

// String returns a human name for the kind.
func (k Kind) String() string {
	switch k {
	case PartnerNotFound:
		return "PartnerNotFound"
	case InsufficientSecurity:
		return "InsufficientSecurity"
	case DecryptionFailed:
		return "DecryptionFailed"
	case InvalidSignature:
		return "InvalidSignature"
	case DecompressionFailed:
		return "DecompressionFailed"
	case DuplicateDocument:
		return "DuplicateDocument"
	case UnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case CertificateError:
		return "CertificateError"
	default:
		return "UnexpectedError"
	}
}

// AdvStatus returns the MDN advisory status string for the kind.
func (k Kind) AdvStatus() string {
	if s, ok := advStatus[k]; ok {
		return s
	}
	return advStatus[Unexpected]
}

// Error is the error type every component returns across a pipeline
// boundary; Kind drives both logging and MDN reporting.
type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind.String(), e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// As extracts an *Error from err, if any, via errors.As semantics used by
// callers (kept thin: callers use the standard errors package directly).
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
