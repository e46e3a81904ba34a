package as2crypto

import (
	"crypto"
	"crypto/x509"
	"fmt"

	"github.com/as2gw/gateway/internal/mimecodec"
	"go.mozilla.org/pkcs7"
)

// Sign produces a detached CMS signature over innerPart (a fully-formed
// MIME part: headers, blank line, body) using the given certificate
// chain and private key, and wraps it in a multipart/signed structure
// (spec §4.1 Sign).  certChain[0] must be the signer's own certificate;
// any remaining entries are included as supporting intermediates.
func Sign(innerPart []byte, certChain []*x509.Certificate, privateKey interface{}, digestAlg string) ([]byte, string, error) {
	if len(certChain) == 0 {
		return nil, "", fmt.Errorf("signing certificate chain is empty")
	}
	signer, ok := privateKey.(crypto.Signer)
	if !ok {
		return nil, "", fmt.Errorf("private key does not implement crypto.Signer")
	}

	signedData, err := pkcs7.NewSignedData(innerPart)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create signed data: %w", err)
	}
	if err := setSignedDataDigest(signedData, digestAlg); err != nil {
		return nil, "", fmt.Errorf("failed to set digest algorithm: %w", err)
	}
	if err := signedData.AddSigner(certChain[0], signer, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, "", fmt.Errorf("failed to add signer: %w", err)
	}
	for _, intermediate := range certChain[1:] {
		signedData.AddCertificate(intermediate)
	}
	signedData.Detach()

	derSignature, err := signedData.Finish()
	if err != nil {
		return nil, "", fmt.Errorf("failed to finish signing: %w", err)
	}

	micalg := micalgFor(digestAlg)
	wire := mimecodec.BuildMultipartSigned(innerPart, micalg, derSignature)
	return wire, micalg, nil
}
