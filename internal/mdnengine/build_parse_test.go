package mdnengine_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/as2gw/gateway/internal/mdnengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genCert(t *testing.T) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "mdn-signer.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func requestHeaders() map[string]string {
	return map[string]string{
		"as2-from":   "SENDERORG",
		"as2-to":     "RECEIVERORG",
		"message-id": "<abc123@senderorg>",
	}
}

func TestBuildParse_UnsignedSuccess(t *testing.T) {
	built, err := mdnengine.Build(mdnengine.BuildInput{
		RequestHeaders:   requestHeaders(),
		ConfirmationText: "The message has been received successfully.",
		Outcome:          mdnengine.Outcome{Success: true, AdvStatus: "processed"},
		MIC:              "abc123==",
		MICAlg:           "sha-256",
		Signed:           true,
	})
	require.NoError(t, err)
	assert.False(t, built.Signed)
	assert.Equal(t, "RECEIVERORG", built.Headers["as2-from"])
	assert.Equal(t, "SENDERORG", built.Headers["as2-to"])

	result, err := mdnengine.Parse(built.Headers, built.Body, false, "abc123==", "sha-256")
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.True(t, result.MICMatch)
}

func TestBuildParse_UnsignedFailure(t *testing.T) {
	built, err := mdnengine.Build(mdnengine.BuildInput{
		RequestHeaders:   requestHeaders(),
		ConfirmationText: "The message could not be processed.",
		Outcome:          mdnengine.Outcome{Success: false, AdvStatus: "decryption-failed"},
	})
	require.NoError(t, err)

	result, err := mdnengine.Parse(built.Headers, built.Body, false, "", "")
	require.NoError(t, err)
	assert.False(t, result.Processed)
	assert.Contains(t, result.AdvStatus, "decryption-failed")
}

func TestBuildParse_Signed(t *testing.T) {
	cert, key := genCert(t)

	built, err := mdnengine.Build(mdnengine.BuildInput{
		RequestHeaders:   requestHeaders(),
		ConfirmationText: "The message has been received successfully.",
		Outcome:          mdnengine.Outcome{Success: true, AdvStatus: "processed"},
		MIC:              "xyz789==",
		MICAlg:           "sha-256",
		Signed:           true,
		SigningRequested: true,
		Signer:           &mdnengine.SigningCert{Chain: []*x509.Certificate{cert}, PrivateKey: key},
		SignDigestAlg:    "sha256",
	})
	require.NoError(t, err)
	assert.True(t, built.Signed)

	result, err := mdnengine.Parse(built.Headers, built.Body, true, "xyz789==", "sha-256")
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.True(t, result.MICMatch)
}

func TestBuildParse_MICMismatch(t *testing.T) {
	built, err := mdnengine.Build(mdnengine.BuildInput{
		RequestHeaders:   requestHeaders(),
		ConfirmationText: "The message has been received successfully.",
		Outcome:          mdnengine.Outcome{Success: true, AdvStatus: "processed"},
		MIC:              "received-mic==",
		MICAlg:           "sha-256",
		Signed:           true,
	})
	require.NoError(t, err)

	result, err := mdnengine.Parse(built.Headers, built.Body, false, "expected-different-mic==", "sha-256")
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.False(t, result.MICMatch)
}
