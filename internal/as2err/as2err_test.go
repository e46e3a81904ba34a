package as2err_test

import (
	"errors"
	"testing"

	"github.com/as2gw/gateway/internal/as2err"
	"github.com/stretchr/testify/assert"
)

func TestKind_AdvStatus(t *testing.T) {
	tests := []struct {
		name     string
		kind     as2err.Kind
		expected string
	}{
		{"unexpected", as2err.Unexpected, "unexpected-processing-error"},
		{"partner not found", as2err.PartnerNotFound, "unknown-trading-partner"},
		{"insufficient security", as2err.InsufficientSecurity, "insufficient-message-security"},
		{"decryption failed", as2err.DecryptionFailed, "decryption-failed"},
		{"invalid signature", as2err.InvalidSignature, "integrity-check-failed"},
		{"decompression failed", as2err.DecompressionFailed, "decompression-failed"},
		{"duplicate document", as2err.DuplicateDocument, "duplicate-document"},
		{"unsupported algorithm", as2err.UnsupportedAlgorithm, "unsupported-algorithm"},
		{"certificate error", as2err.CertificateError, "certificate-error"},
		{"unknown kind falls back to unexpected", as2err.Kind(999), "unexpected-processing-error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.AdvStatus())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "PartnerNotFound", as2err.PartnerNotFound.String())
	assert.Equal(t, "UnexpectedError", as2err.Kind(999).String())
}

func TestError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := as2err.New(as2err.DecryptionFailed, cause)

	assert.Equal(t, "DecryptionFailed: boom", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))

	bare := as2err.New(as2err.PartnerNotFound, nil)
	assert.Equal(t, "PartnerNotFound", bare.Error())
}

func TestAs(t *testing.T) {
	wrapped := as2err.New(as2err.DuplicateDocument, nil)

	extracted, ok := as2err.As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, as2err.DuplicateDocument, extracted.Kind)

	_, ok = as2err.As(errors.New("plain error"))
	assert.False(t, ok)
}
