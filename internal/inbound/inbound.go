// Package inbound implements the receive-side AS2 pipeline (spec §4.6):
// partner resolution, duplicate detection, decrypt/verify/decompress in
// the order the wire dictates, and payload extraction.
package inbound

import (
	"crypto/sha256"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/as2gw/gateway/internal/as2err"
	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/mimecodec"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/as2gw/gateway/internal/secrets"
	"github.com/as2gw/gateway/internal/store"
)

// Request is a single inbound AS2 HTTP POST; header names are matched
// case-insensitively.
type Request struct {
	Headers map[string]string
	Body    []byte
}

// Result is the outcome of processing one Request.
type Result struct {
	Message      *as2model.Message
	Organization *as2model.Organization
	Partner      *as2model.Partner
	PayloadBytes []byte
	Filename     string
	MICInput     []byte
	Duplicate    bool
}

// Processor wires together the stores the inbound pipeline reads from.
type Processor struct {
	Profile *profile.Store
	Store   *store.Store
	Secrets *secrets.Store
}

func headerValue(headers map[string]string, name string) string {
	name = strings.ToLower(name)
	for k, v := range headers {
		if strings.ToLower(k) == name {
			return v
		}
	}
	return ""
}

// Process runs the full §4.6 algorithm and returns a Result even on
// failure — callers inspect Message.Status/AdvStatus/StatusMessage to
// decide MDN content. A non-nil error is returned only when an
// organization, partner or duplicate lookup in the stores fails.
func (p *Processor) Process(req *Request) (*Result, error) {
	asFromRaw := headerValue(req.Headers, "as2-from")
	asToRaw := headerValue(req.Headers, "as2-to")
	messageIDRaw := headerValue(req.Headers, "message-id")

	asFrom := profile.UnescapeAS2Name(asFromRaw)
	asTo := profile.UnescapeAS2Name(asToRaw)
	messageID := stripAngleBrackets(messageIDRaw)

	org, err := p.Profile.FindOrganization(asTo)
	if err != nil {
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}
	partner, err := p.Profile.FindPartner(asFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to look up partner: %w", err)
	}
	if org == nil || partner == nil {
		msg := newMessage(messageID, asTo, asFrom, req)
		fail(msg, as2err.PartnerNotFound, fmt.Sprintf("unknown AS2-To %q or AS2-From %q", asTo, asFrom))
		return &Result{Message: msg, Organization: org, Partner: partner}, nil
	}

	dup, err := p.Store.ExistsDuplicate(org.AS2Name, partner.AS2Name, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	if dup {
		sum := sha256.Sum256(req.Body)
		dupID := fmt.Sprintf("%s#%x", messageID, sum[:8])
		msg := newMessage(dupID, asTo, asFrom, req)
		msg.OrgName, msg.PartnerName = org.AS2Name, partner.AS2Name
		fail(msg, as2err.DuplicateDocument, "duplicate message-id for this org/partner pair")
		return &Result{Message: msg, Organization: org, Partner: partner, Duplicate: true}, nil
	}

	msg := newMessage(messageID, asTo, asFrom, req)
	msg.OrgName, msg.PartnerName = org.AS2Name, partner.AS2Name

	current := req.Body
	contentType := headerValue(req.Headers, "content-type")

	if partner.EncryptionAlg != "" && !isEnveloped(contentType) {
		fail(msg, as2err.InsufficientSecurity, fmt.Sprintf("messages from partner %s must be encrypted", partner.AS2Name))
		return &Result{Message: msg, Organization: org, Partner: partner}, nil
	}

	var micInput []byte

	if isEnveloped(contentType) {
		msg.Encrypted = true
		decCert, err := profile.ResolveCertificate(p.Profile, p.Secrets, org.EncryptionCertID)
		if err != nil {
			failErr(msg, as2err.CertificateError, err)
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}
		plaintext, err := as2crypto.Decrypt(current, decCert.Chain[0], decCert.PrivateKey)
		if err != nil {
			failErr(msg, as2err.DecryptionFailed, err)
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}
		current = plaintext
		contentType = mimecodec.ExtractHeader(current, "Content-Type")
	}

	if partner.SignatureAlg != "" && !isMultipartSigned(contentType) {
		fail(msg, as2err.InsufficientSecurity, fmt.Sprintf("messages from partner %s must be signed", partner.AS2Name))
		return &Result{Message: msg, Organization: org, Partner: partner}, nil
	}

	if isMultipartSigned(contentType) {
		msg.Signed = true
		_, params, _ := mime.ParseMediaType(contentType)
		micAlg := params["micalg"]
		if micAlg == "" {
			micAlg = "sha1"
		}
		msg.MICAlg = micAlg

		verifyCert, err := profile.ResolveCertificate(p.Profile, p.Secrets, partner.SignatureCertID)
		if err != nil {
			failErr(msg, as2err.CertificateError, err)
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}

		_, body := mimecodec.SplitHeadersBody(current)
		signedContent, signature, err := mimecodec.ExtractSignedParts(body, params["boundary"])
		if err != nil {
			failErr(msg, as2err.InvalidSignature, err)
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}

		result, err := as2crypto.Verify(signedContent, signature, mimecodec.Canonicalize)
		if err != nil || !result.Ok() {
			failErr(msg, as2err.InvalidSignature, fmt.Errorf("signature verification failed"))
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}
		if len(verifyCert.Chain) > 0 && !as2crypto.SameCertificate(result.SignerCert, verifyCert.Chain[0]) {
			failErr(msg, as2err.InvalidSignature, fmt.Errorf("signer certificate does not match partner %s's registered certificate", partner.AS2Name))
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}

		micInput = mimecodec.Canonicalize(signedContent)
		current = signedContent
		contentType = mimecodec.ExtractHeader(current, "Content-Type")
	}

	if isCompressed(contentType) {
		msg.Compressed = true
		_, body := mimecodec.SplitHeadersBody(current)
		decompressed, err := as2crypto.Decompress(body)
		if err != nil {
			failErr(msg, as2err.DecompressionFailed, err)
			return &Result{Message: msg, Organization: org, Partner: partner}, nil
		}
		current = decompressed
		contentType = mimecodec.ExtractHeader(current, "Content-Type")
	}

	headers, payload := mimecodec.SplitHeadersBody(current)
	filename := extractFilename(headers)
	if !partner.KeepFilename || filename == "" {
		filename = messageID + ".msg"
	}

	if msg.Signed {
		msg.MIC = as2crypto.MIC(micInput, msg.MICAlg)
	}

	msg.Status = as2model.StatusSuccess
	msg.AdvStatus = "processed"

	return &Result{
		Message:      msg,
		Organization: org,
		Partner:      partner,
		PayloadBytes: payload,
		Filename:     filepath.Base(filename),
		MICInput:     micInput,
	}, nil
}

func newMessage(messageID, asTo, asFrom string, req *Request) *as2model.Message {
	return &as2model.Message{
		ID:        fmt.Sprintf("%s#%s#%s", messageID, asTo, asFrom),
		MessageID: messageID,
		Direction: as2model.DirectionIn,
		Timestamp: time.Now(),
		Headers:   joinHeaders(req.Headers),
		MDNMode:   as2model.MDNModeSync,
	}
}

func fail(msg *as2model.Message, kind as2err.Kind, cause string) {
	msg.Status = as2model.StatusError
	msg.AdvStatus = kind.AdvStatus()
	msg.StatusMessage = cause
}

func failErr(msg *as2model.Message, kind as2err.Kind, err error) {
	fail(msg, kind, err.Error())
}

func joinHeaders(headers map[string]string) string {
	var b strings.Builder
	for k, v := range headers {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	return b.String()
}

func stripAngleBrackets(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimSuffix(strings.TrimPrefix(v, "<"), ">")
}

func isEnveloped(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, "application/pkcs7-mime") && strings.EqualFold(params["smime-type"], "enveloped-data")
}

func isCompressed(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, "application/pkcs7-mime") && strings.EqualFold(params["smime-type"], "compressed-data")
}

func isMultipartSigned(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if !strings.EqualFold(mediaType, "multipart/signed") {
		return false
	}
	protocol := params["protocol"]
	return strings.EqualFold(protocol, "application/pkcs7-signature") || strings.EqualFold(protocol, "application/x-pkcs7-signature")
}

func extractFilename(headers []byte) string {
	cd := mimecodec.ExtractHeader(headers, "Content-Disposition")
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
