package as2crypto

import (
	"crypto/x509"
	"fmt"

	"github.com/as2gw/gateway/internal/as2err"
	"go.mozilla.org/pkcs7"
)

// encryptionAlgorithms maps the spec's AS2 algorithm names to the
// go.mozilla.org/pkcs7 content-encryption constants. rc2_40_cbc and
// aes_192_cbc have no equivalent in the library (see DESIGN.md "Known
// library limitation") and are intentionally absent; Encrypt reports
// them as an as2err.UnsupportedAlgorithm error.
var encryptionAlgorithms = map[string]int{
	"des_cbc":      pkcs7.EncryptionAlgorithmDESCBC,
	"des_ede3_cbc": pkcs7.EncryptionAlgorithmDESEDE3CBC,
	"aes_128_cbc":  pkcs7.EncryptionAlgorithmAES128CBC,
	"aes_256_cbc":  pkcs7.EncryptionAlgorithmAES256CBC,
}

// SupportedEncryptionAlgorithm reports whether alg can be passed to
// Encrypt/Decrypt.
func SupportedEncryptionAlgorithm(alg string) bool {
	_, ok := encryptionAlgorithms[alg]
	return ok
}

// Encrypt wraps data in a CMS EnvelopedData structure for the given
// recipient certificates and builds the application/pkcs7-mime MIME
// part the partner receives (spec §4.1 Encrypt).
func Encrypt(data []byte, recipients []*x509.Certificate, alg string) ([]byte, error) {
	pkcs7Alg, ok := encryptionAlgorithms[alg]
	if !ok {
		return nil, as2err.New(as2err.UnsupportedAlgorithm, fmt.Errorf("unsupported encryption algorithm: %s", alg))
	}
	pkcs7.ContentEncryptionAlgorithm = pkcs7Alg
	encrypted, err := pkcs7.Encrypt(data, recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}
	return encrypted, nil
}

// BuildEnvelopedMIMEPart wraps encrypted CMS bytes in the
// application/pkcs7-mime envelope AS2 transmits on the wire.
func BuildEnvelopedMIMEPart(encrypted []byte) []byte {
	return buildSMIMEPart(encrypted, "application/pkcs7-mime; smime-type=enveloped-data; name=\"smime.p7m\"", "smime.p7m")
}
