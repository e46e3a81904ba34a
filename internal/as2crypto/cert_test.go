package as2crypto_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func certToPEM(t *testing.T, der []byte) string {
	t.Helper()
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestParseCertificate(t *testing.T) {
	cert, _ := genTestCert(t, "parse-me.example.com")
	pemData := certToPEM(t, cert.Raw)

	parsed, err := as2crypto.ParseCertificate(pemData)
	require.NoError(t, err)
	assert.Equal(t, cert.Subject.CommonName, parsed.Subject.CommonName)
}

func TestParseCertificate_NoPEMData(t *testing.T) {
	_, err := as2crypto.ParseCertificate("not pem data")
	assert.Error(t, err)
}

func TestParseCertChain_MultipleCerts(t *testing.T) {
	cert1, _ := genTestCert(t, "leaf.example.com")
	cert2, _ := genTestCert(t, "ca.example.com")

	bundle := certToPEM(t, cert1.Raw) + certToPEM(t, cert2.Raw)

	chain, err := as2crypto.ParseCertChain(bundle)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "leaf.example.com", chain[0].Subject.CommonName)
	assert.Equal(t, "ca.example.com", chain[1].Subject.CommonName)
}

func TestParseCertChain_Empty(t *testing.T) {
	_, err := as2crypto.ParseCertChain("")
	assert.Error(t, err)
}

func TestIsSelfSigned(t *testing.T) {
	cert, _ := genTestCert(t, "self-signed.example.com")
	assert.True(t, as2crypto.IsSelfSigned(cert))
}

func TestParsePrivateKey(t *testing.T) {
	_, key := genTestCert(t, "private-key.example.com")

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemData := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	parsed, err := as2crypto.ParsePrivateKey(pemData)
	require.NoError(t, err)
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.Equal(t, key.D, rsaKey.D)
}

func TestFingerprint_Deterministic(t *testing.T) {
	cert, _ := genTestCert(t, "fingerprint.example.com")
	fp1 := as2crypto.Fingerprint(cert.Raw)
	fp2 := as2crypto.Fingerprint(cert.Raw)
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64) // hex-encoded sha256
}

func TestSameCertificate(t *testing.T) {
	certA, _ := genTestCert(t, "a.example.com")
	certB, _ := genTestCert(t, "b.example.com")

	assert.True(t, as2crypto.SameCertificate(certA, certA))
	assert.False(t, as2crypto.SameCertificate(certA, certB))
	assert.False(t, as2crypto.SameCertificate(nil, certA))
	assert.False(t, as2crypto.SameCertificate(certA, nil))
}
