package mdnengine

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/as2gw/gateway/internal/as2err"
	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/mimecodec"
)

// ParseResult is the outcome of parsing a received MDN report against
// the outbound Message it responds to (spec §4.7 Parse).
type ParseResult struct {
	Processed     bool
	AdvStatus     string
	MICMatch      bool
	MICPresent    bool
	SignatureWarn string
}

// Parse validates and interprets an MDN body. headers are the HTTP (or
// stored) headers of the MDN response. The signer's certificate is not
// supplied separately — like the original signed content, it travels
// embedded in the CMS signature itself; AS2 trust is established by
// prior certificate exchange, not by re-checking it against a pinned
// copy on every MDN.
func Parse(headers map[string]string, body []byte, partnerSigningRequired bool, originalMIC, originalMICAlg string) (*ParseResult, error) {
	ct := headerValue(headers, "content-type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mdn content type: %w", err)
	}

	if mediaType != "multipart/signed" && mediaType != "multipart/report" {
		return nil, fmt.Errorf("mdn report not found in the response")
	}

	result := &ParseResult{}
	reportBody := body
	reportContentType := ct

	if mediaType == "multipart/signed" {
		boundary := params["boundary"]
		signedContent, signature, err := mimecodec.ExtractSignedParts(body, boundary)
		if err != nil {
			return nil, fmt.Errorf("failed to extract mdn signature: %w", err)
		}
		verifyResult, err := as2crypto.Verify(signedContent, signature, mimecodec.Canonicalize)
		if err != nil {
			return nil, fmt.Errorf("mdn signature verification error: %w", err)
		}
		if !verifyResult.Ok() {
			return nil, fmt.Errorf("mdn signature verification failed: %s", verifyResult.ErrorMessage)
		}
		innerHeaders, innerBody := mimecodec.SplitHeadersBody(signedContent)
		reportContentType = mimecodec.ExtractHeader(innerHeaders, "Content-Type")
		reportBody = innerBody
	} else if partnerSigningRequired {
		result.SignatureWarn = "expected signed mdn but unsigned mdn returned"
	}

	_, reportParams, err := mime.ParseMediaType(reportContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report content type: %w", err)
	}
	boundary := reportParams["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("mdn report missing boundary")
	}

	notification, err := findDispositionNotification(reportBody, boundary)
	if err != nil {
		return nil, err
	}

	disposition := mimecodec.ExtractHeader(notification, "Disposition")
	tokens := strings.Split(disposition, ";")
	if len(tokens) < 2 {
		return nil, fmt.Errorf("malformed disposition field: %s", disposition)
	}
	statusToken := strings.TrimSpace(tokens[1])

	if statusToken != "processed" {
		result.Processed = false
		result.AdvStatus = disposition
		return result, nil
	}
	result.Processed = true

	micLine := mimecodec.ExtractHeader(notification, "Received-content-MIC")
	if micLine != "" && originalMIC != "" {
		result.MICPresent = true
		parts := strings.SplitN(micLine, ",", 2)
		receivedMIC := strings.TrimSpace(parts[0])
		result.MICMatch = receivedMIC == originalMIC
	} else {
		result.MICMatch = true
	}

	return result, nil
}

// Reconcile turns a parsed MDN into the outbound Message status/adv_status
// it implies (spec §8 testable properties): a Parse error means the MDN
// itself could not be trusted (InvalidSignature); an unprocessed
// disposition is a hard error; a MIC mismatch is a warning, not an error,
// since the business message was still delivered and processed by the
// partner; anything else is success.
func Reconcile(result *ParseResult, parseErr error) (as2model.Status, string) {
	if parseErr != nil {
		return as2model.StatusError, as2err.InvalidSignature.AdvStatus()
	}
	if !result.Processed {
		return as2model.StatusError, result.AdvStatus
	}
	if result.MICPresent && !result.MICMatch {
		return as2model.StatusWarning, "mic-mismatch"
	}
	return as2model.StatusSuccess, "processed"
}

// findDispositionNotification scans a multipart/report body for its
// message/disposition-notification part, by boundary on the raw bytes.
func findDispositionNotification(body []byte, boundary string) ([]byte, error) {
	boundaryLine := []byte("--" + boundary)
	segments := bytes.Split(body, boundaryLine)
	for _, segment := range segments {
		trimmed := bytes.TrimLeft(segment, "\r\n")
		if bytes.HasPrefix(trimmed, []byte("Content-Type: message/disposition-notification")) {
			_, partBody := mimecodec.SplitHeadersBody(trimmed)
			return partBody, nil
		}
	}
	return nil, fmt.Errorf("message/disposition-notification part not found")
}
