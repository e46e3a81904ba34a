// Package mdnengine builds, signs, sends and parses Message Disposition
// Notifications (spec §4.7), the AS2 receipt mechanism.
package mdnengine

import (
	"bytes"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/as2gw/gateway/internal/mimecodec"
	"github.com/google/uuid"
)

const userAgent = "AS2Gw/1.0"
const ediintFeatures = "multiple-attachments, CEM"
const as2Version = "1.1"

// Outcome is the inbound processing result an MDN reports.
type Outcome struct {
	Success       bool
	AdvStatus     string
	StatusMessage string
}

// ReceiptRequested reports whether the original request headers asked
// for an MDN (disposition-notification-to present).
func ReceiptRequested(headers map[string]string) bool {
	return headerValue(headers, "disposition-notification-to") != ""
}

// AsyncReturnURL returns the receipt-delivery-option header value, or ""
// for a synchronous MDN.
func AsyncReturnURL(headers map[string]string) string {
	return headerValue(headers, "receipt-delivery-option")
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if equalFold(k, name) {
			return v
		}
	}
	return ""
}

func equalFold(a, b string) bool {
	return len(a) == len(b) && bytes.EqualFold([]byte(a), []byte(b))
}

// SigningCert bundles the chain and key used to sign an MDN, or is nil
// when the MDN should be sent unsigned.
type SigningCert struct {
	Chain      []*x509.Certificate
	PrivateKey interface{}
}

// BuildInput collects everything Build needs to assemble an MDN.
type BuildInput struct {
	RequestHeaders    map[string]string
	ConfirmationText  string
	Outcome           Outcome
	MIC               string
	MICAlg            string
	Signed            bool
	OrgEmail          string
	SigningRequested  bool
	Signer            *SigningCert
	SignDigestAlg     string
}

// BuildResult is the wire-ready MDN plus the headers to send alongside it.
type BuildResult struct {
	Body    []byte
	Headers map[string]string
	Signed  bool
}

// Build constructs the multipart/report MDN described in spec §4.7,
// optionally wrapping it in a detached signature when the organization
// has a signing key and the partner's request asked for one.
func Build(in BuildInput) (*BuildResult, error) {
	asTo := headerValue(in.RequestHeaders, "as2-to")
	asFrom := headerValue(in.RequestHeaders, "as2-from")
	messageID := stripAngle(headerValue(in.RequestHeaders, "message-id"))

	boundary := mimecodec.GenerateBoundary()

	var textPart bytes.Buffer
	textPart.WriteString("Content-Type: text/plain; charset=us-ascii\r\n\r\n")
	textPart.WriteString(in.ConfirmationText)
	textPart.WriteString("\r\n")

	disposition := "automatic-action/MDN-sent-automatically; processed"
	if !in.Outcome.Success {
		disposition = fmt.Sprintf("automatic-action/MDN-sent-automatically; processed/error: %s", in.Outcome.AdvStatus)
	}

	var notification bytes.Buffer
	notification.WriteString(fmt.Sprintf("Reporting-UA: %s\r\n", userAgent))
	notification.WriteString(fmt.Sprintf("Original-Recipient: rfc822; %s\r\n", asTo))
	notification.WriteString(fmt.Sprintf("Final-Recipient: rfc822; %s\r\n", asTo))
	notification.WriteString(fmt.Sprintf("Original-Message-ID: <%s>\r\n", messageID))
	notification.WriteString(fmt.Sprintf("Disposition: %s\r\n", disposition))
	if in.Signed && in.MIC != "" {
		notification.WriteString(fmt.Sprintf("Received-content-MIC: %s, %s\r\n", in.MIC, in.MICAlg))
	}

	var notificationPart bytes.Buffer
	notificationPart.WriteString("Content-Type: message/disposition-notification; charset=us-ascii\r\n\r\n")
	notificationPart.Write(notification.Bytes())

	var report bytes.Buffer
	report.WriteString(fmt.Sprintf("Content-Type: multipart/report; report-type=disposition-notification; boundary=\"%s\"\r\n\r\n", boundary))
	report.WriteString("--" + boundary + "\r\n")
	report.Write(textPart.Bytes())
	report.WriteString("\r\n--" + boundary + "\r\n")
	report.Write(notificationPart.Bytes())
	report.WriteString("\r\n--" + boundary + "--\r\n")

	reportBytes := report.Bytes()
	signed := false
	finalBody := reportBytes
	contentTypeHeader := fmt.Sprintf("multipart/report; report-type=disposition-notification; boundary=\"%s\"", boundary)

	if in.SigningRequested && in.Signer != nil && len(in.Signer.Chain) > 0 {
		canonical := mimecodec.Canonicalize(reportBytes)
		var innerPart bytes.Buffer
		innerPart.WriteString(fmt.Sprintf("Content-Type: %s\r\n\r\n", contentTypeHeader))
		innerPart.Write(canonical)

		wire, _, err := as2crypto.Sign(innerPart.Bytes(), in.Signer.Chain, in.Signer.PrivateKey, in.SignDigestAlg)
		if err != nil {
			return nil, fmt.Errorf("failed to sign mdn: %w", err)
		}
		// as2crypto.Sign returns a self-contained MIME message (header
		// lines + blank line + body), which fits an RFC 5322 message but
		// not an AS2-over-HTTP response: the Content-Type belongs in the
		// HTTP header, not duplicated into the body text.
		wireHeaders, wireBody := mimecodec.SplitHeadersBody(wire)
		contentTypeHeader = mimecodec.ExtractHeader(wireHeaders, "Content-Type")
		finalBody = wireBody
		signed = true
	}

	headers := map[string]string{
		"ediint-features": ediintFeatures,
		"as2-from":        asTo,
		"as2-to":          asFrom,
		"as2-version":     as2Version,
		"date":            time.Now().Format(time.RFC1123Z),
		"message-id":      fmt.Sprintf("<%s>", uuid.New().String()),
		"user-agent":      userAgent,
		"subject":         "Message Delivery Notification",
		"content-type":    contentTypeHeader,
	}
	if in.OrgEmail != "" {
		headers["from"] = in.OrgEmail
	}

	return &BuildResult{Body: finalBody, Headers: headers, Signed: signed}, nil
}

func stripAngle(v string) string {
	v = trimSpace(v)
	if len(v) >= 2 && v[0] == '<' && v[len(v)-1] == '>' {
		return v[1 : len(v)-1]
	}
	return v
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}
