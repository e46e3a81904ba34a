// Package mimecodec builds and parses the MIME structures AS2 wraps
// around EDI payloads: multipart/signed envelopes, filtered headers, and
// the byte-exact canonical form signatures are computed over (spec §4.2,
// §9).
//
// The core lesson carried over from the teacher is that a signature must
// be verified against the exact bytes that were signed, not against a
// round-trip through Go's multipart parser: re-serializing a parsed MIME
// tree can change line folding, part ordering or trailing whitespace and
// silently break verification. The signed content is extracted by
// scanning the boundary markers directly on the original byte stream;
// only the detached signature part is read through mime/multipart.
package mimecodec

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"mime"
	"strings"
)

// GenerateBoundary returns a random multipart boundary string.
func GenerateBoundary() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return fmt.Sprintf("----=_as2gw_%x", b)
}

// ExtractHeader returns the value of the named header from a raw
// RFC 822/5322 header block, honoring folded continuation lines. Returns
// "" if the header is absent.
func ExtractHeader(headers []byte, name string) string {
	lines := strings.Split(string(headers), "\n")
	lowerName := strings.ToLower(name) + ":"
	var value strings.Builder
	inHeader := false
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if inHeader {
			if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
				value.WriteByte(' ')
				value.WriteString(strings.TrimSpace(line))
				continue
			}
			break
		}
		if strings.HasPrefix(strings.ToLower(line), lowerName) {
			value.WriteString(strings.TrimSpace(line[len(lowerName):]))
			inHeader = true
		}
	}
	return value.String()
}

// SplitHeadersBody splits a raw MIME message or part into its header
// block and body, tolerating both CRLF and bare-LF terminated blank
// lines.
func SplitHeadersBody(raw []byte) (headers, body []byte) {
	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}
	return raw, nil
}

// WriteFilteredHeaders copies headers into buf, skipping
// Content-Type/Content-Transfer-Encoding/MIME-Version (the caller sets
// those for the enclosing part) and always appending MIME-Version: 1.0.
func WriteFilteredHeaders(buf *bytes.Buffer, headers []byte) {
	lines := strings.Split(string(headers), "\n")
	skip := false
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if !skip {
				buf.WriteString(line)
				buf.WriteString("\r\n")
			}
			continue
		}
		lower := strings.ToLower(line)
		skip = strings.HasPrefix(lower, "content-type:") ||
			strings.HasPrefix(lower, "content-transfer-encoding:") ||
			strings.HasPrefix(lower, "mime-version:")
		if !skip && line != "" {
			buf.WriteString(line)
			buf.WriteString("\r\n")
		}
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
}

// ParseContentType parses a Content-Type header value into its media
// type and parameter map.
func ParseContentType(value string) (string, map[string]string, error) {
	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse content type: %w", err)
	}
	return mediaType, params, nil
}

// Canonicalize normalizes line endings to CRLF and ensures a single
// trailing newline, the canonical form signatures are computed over
// when a message must be re-derived locally rather than taken verbatim
// off the wire (spec §9).
func Canonicalize(data []byte) []byte {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\n"), []byte("\r\n"))
	for bytes.HasSuffix(normalized, []byte("\r\n\r\n")) {
		normalized = normalized[:len(normalized)-2]
	}
	if !bytes.HasSuffix(normalized, []byte("\r\n")) {
		normalized = append(normalized, '\r', '\n')
	}
	return normalized
}

// Base76Wrap wraps base64 text at 76 characters per line with CRLF, the
// line length S/MIME implementations conventionally emit.
func Base76Wrap(b64 string) string {
	var buf bytes.Buffer
	for i := 0; i < len(b64); i += 76 {
		end := i + 76
		if end > len(b64) {
			end = len(b64)
		}
		buf.WriteString(b64[i:end])
		buf.WriteString("\r\n")
	}
	return buf.String()
}
