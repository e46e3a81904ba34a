package as2crypto_test

import (
	"encoding/pem"
	"testing"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportPEMCertificate(t *testing.T) {
	cert, _ := genTestCert(t, "imported.example.com")
	pemData := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))

	imported, err := as2crypto.ImportPEMCertificate(pemData)
	require.NoError(t, err)

	assert.Equal(t, pemData, imported.CertPEM)
	assert.Contains(t, imported.Subject, "imported.example.com")
	assert.True(t, imported.SelfSigned)
	assert.Len(t, imported.Fingerprint, 64)
	assert.Equal(t, cert.NotBefore, imported.NotBefore)
}

func TestImportPEMCertificate_InvalidData(t *testing.T) {
	_, err := as2crypto.ImportPEMCertificate("garbage")
	assert.Error(t, err)
}
