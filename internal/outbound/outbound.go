// Package outbound builds the wire form of an AS2 business message
// (spec §4.5): the symmetric compress/sign/encrypt pipeline driven by a
// partner's negotiated security contract, followed by AS2 header
// assembly.
package outbound

import (
	"bytes"
	"fmt"
	"time"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/mimecodec"
	"github.com/as2gw/gateway/internal/profile"
)

const userAgent = "AS2Gw/1.0"
const ediintFeatures = "multiple-attachments, CEM"
const as2Version = "1.1"

// BuildInput is everything the builder needs to assemble one outbound
// message (spec §4.5 input tuple).
type BuildInput struct {
	Org           *as2model.Organization
	Partner       *as2model.Partner
	PayloadBytes  []byte
	Filename      string
	MessageID     string
	SignCert      *profile.ResolvedCert
	EncryptCert   *profile.ResolvedCert
	AsyncMDNURL   string
}

// BuildResult is the wire-ready AS2 message.
type BuildResult struct {
	Headers map[string]string
	Body    []byte
	MIC     string
	MICAlg  string
}

// Build runs the pipeline described in spec §4.5.
func Build(in BuildInput) (*BuildResult, error) {
	var current bytes.Buffer
	current.WriteString(fmt.Sprintf("Content-Type: %s\r\n", in.Partner.ContentType))
	current.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", in.Filename))
	current.WriteString("\r\n")
	current.Write(in.PayloadBytes)

	part := current.Bytes()

	if in.Partner.Compress {
		canonical := mimecodec.Canonicalize(part)
		compressed, err := as2crypto.Compress(canonical)
		if err != nil {
			return nil, fmt.Errorf("failed to compress payload: %w", err)
		}
		part = as2crypto.BuildCompressedMIMEPart(compressed)
	}

	var mic, micAlg string
	if in.Partner.SignatureAlg != "" {
		if in.SignCert == nil || len(in.SignCert.Chain) == 0 {
			return nil, fmt.Errorf("signature requested but no signing certificate resolved")
		}
		micInput := mimecodec.Canonicalize(part)
		wire, alg, err := as2crypto.Sign(part, in.SignCert.Chain, in.SignCert.PrivateKey, in.Partner.SignatureAlg)
		if err != nil {
			return nil, fmt.Errorf("failed to sign payload: %w", err)
		}
		mic = as2crypto.MIC(micInput, in.Partner.SignatureAlg)
		micAlg = alg
		part = wire
	}

	if in.Partner.EncryptionAlg != "" {
		if in.EncryptCert == nil || len(in.EncryptCert.Chain) == 0 {
			return nil, fmt.Errorf("encryption requested but no recipient certificate resolved")
		}
		canonical := mimecodec.Canonicalize(part)
		encrypted, err := as2crypto.Encrypt(canonical, in.EncryptCert.Chain, in.Partner.EncryptionAlg)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt payload: %w", err)
		}
		part = as2crypto.BuildEnvelopedMIMEPart(encrypted)
	}

	partHeaders, partBody := mimecodec.SplitHeadersBody(part)

	headers := map[string]string{
		"as2-version":        as2Version,
		"ediint-features":    ediintFeatures,
		"mime-version":       "1.0",
		"message-id":         fmt.Sprintf("<%s>", in.MessageID),
		"as2-from":           profile.EscapeAS2Name(in.Org.AS2Name),
		"as2-to":             profile.EscapeAS2Name(in.Partner.AS2Name),
		"subject":            in.Partner.Subject,
		"date":               time.Now().Format(time.RFC1123Z),
		"recipient-address":  in.Partner.TargetURL,
		"user-agent":         userAgent,
	}
	if in.Org.EmailAddress != "" {
		headers["from"] = in.Org.EmailAddress
	}
	if ct := mimecodec.ExtractHeader(partHeaders, "Content-Type"); ct != "" {
		headers["content-type"] = ct
	}
	if cd := mimecodec.ExtractHeader(partHeaders, "Content-Disposition"); cd != "" {
		headers["content-disposition"] = cd
	}
	if cte := mimecodec.ExtractHeader(partHeaders, "Content-Transfer-Encoding"); cte != "" {
		headers["content-transfer-encoding"] = cte
	}

	if in.Partner.MDNRequested {
		headers["disposition-notification-to"] = "no-reply@as2gw.local"
		if in.Partner.MDNSignAlg != "" {
			headers["disposition-notification-options"] = fmt.Sprintf(
				"signed-receipt-protocol=required, pkcs7-signature; signed-receipt-micalg=optional, %s", in.Partner.MDNSignAlg)
		}
		if in.Partner.MDNMode == as2model.MDNModeAsync {
			headers["receipt-delivery-option"] = in.AsyncMDNURL
		}
	}

	return &BuildResult{Headers: headers, Body: partBody, MIC: mic, MICAlg: micAlg}, nil
}

// JoinHeaders renders the header map as "Key: Value\n" lines, the
// storage form persisted against a Message record.
func JoinHeaders(headers map[string]string) string {
	var buf bytes.Buffer
	for k, v := range headers {
		buf.WriteString(fmt.Sprintf("%s: %s\n", k, v))
	}
	return buf.String()
}
