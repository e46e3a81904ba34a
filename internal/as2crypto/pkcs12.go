package as2crypto

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// ImportedCertificate is the metadata extracted from an imported
// certificate, regardless of import source (PKCS#12 bundle or a bare
// PEM certificate).
type ImportedCertificate struct {
	CertPEM       string
	CAPEM         string
	PrivateKeyPEM string
	Subject       string
	Issuer        string
	SerialNumber  string
	Fingerprint   string
	NotBefore     time.Time
	NotAfter      time.Time
	SelfSigned    bool
}

// ImportPKCS12 parses a PKCS#12 bundle (.p12/.pfx) and extracts the
// private key, leaf certificate and CA chain, used when a partner or
// organization certificate is onboarded from a combined bundle rather
// than a bare PEM certificate (spec §3 Certificate.kind=private).
func ImportPKCS12(data []byte, password string) (*ImportedCertificate, error) {
	privateKey, leafCert, caCerts, err := gopkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PKCS#12: %w", err)
	}

	pkcs8Bytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	privateKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8Bytes})

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafCert.Raw})

	var caPEM []byte
	for _, ca := range caCerts {
		caPEM = append(caPEM, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.Raw})...)
	}

	return &ImportedCertificate{
		CertPEM:       string(certPEM),
		CAPEM:         string(caPEM),
		PrivateKeyPEM: string(privateKeyPEM),
		Subject:       leafCert.Subject.String(),
		Issuer:        leafCert.Issuer.String(),
		SerialNumber:  leafCert.SerialNumber.String(),
		Fingerprint:   Fingerprint(leafCert.Raw),
		NotBefore:     leafCert.NotBefore,
		NotAfter:      leafCert.NotAfter,
		SelfSigned:    IsSelfSigned(leafCert),
	}, nil
}

// ImportPEMCertificate extracts metadata from a bare public certificate,
// used for partner verification/encryption certs received out-of-band.
func ImportPEMCertificate(pemData string) (*ImportedCertificate, error) {
	cert, err := ParseCertificate(pemData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return &ImportedCertificate{
		CertPEM:      pemData,
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: cert.SerialNumber.String(),
		Fingerprint:  Fingerprint(cert.Raw),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		SelfSigned:   IsSelfSigned(cert),
	}, nil
}
