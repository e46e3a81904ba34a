package mimecodec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/as2gw/gateway/internal/mimecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHeader(t *testing.T) {
	tests := []struct {
		name     string
		headers  string
		header   string
		expected string
	}{
		{
			name:     "simple header",
			headers:  "Content-Type: text/plain\r\nContent-Length: 5\r\n",
			header:   "Content-Type",
			expected: "text/plain",
		},
		{
			name:     "case insensitive name",
			headers:  "CONTENT-TYPE: text/plain\r\n",
			header:   "content-type",
			expected: "text/plain",
		},
		{
			name:     "folded continuation line",
			headers:  "Content-Type: multipart/signed;\r\n boundary=\"abc\"\r\n",
			header:   "Content-Type",
			expected: "multipart/signed; boundary=\"abc\"",
		},
		{
			name:     "missing header",
			headers:  "Content-Type: text/plain\r\n",
			header:   "X-Missing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mimecodec.ExtractHeader([]byte(tt.headers), tt.header)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSplitHeadersBody(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		expectHeader string
		expectBody   string
	}{
		{
			name:         "crlf separator",
			raw:          "Content-Type: text/plain\r\n\r\nhello world",
			expectHeader: "Content-Type: text/plain",
			expectBody:   "hello world",
		},
		{
			name:         "bare lf separator",
			raw:          "Content-Type: text/plain\n\nhello world",
			expectHeader: "Content-Type: text/plain",
			expectBody:   "hello world",
		},
		{
			name:         "no blank line",
			raw:          "just one line",
			expectHeader: "just one line",
			expectBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, body := mimecodec.SplitHeadersBody([]byte(tt.raw))
			assert.Equal(t, tt.expectHeader, string(headers))
			assert.Equal(t, tt.expectBody, string(body))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	input := "line one\nline two\r\n\r\n\r\n"
	got := mimecodec.Canonicalize([]byte(input))

	assert.True(t, strings.HasSuffix(string(got), "\r\n"))
	assert.False(t, strings.HasSuffix(string(got), "\r\n\r\n"))
	assert.Equal(t, "line one\r\nline two\r\n", string(got))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	input := []byte("already\r\ncanonical\r\n")
	once := mimecodec.Canonicalize(input)
	twice := mimecodec.Canonicalize(once)
	assert.Equal(t, once, twice)
}

func TestBase76Wrap(t *testing.T) {
	b64 := strings.Repeat("A", 200)
	wrapped := mimecodec.Base76Wrap(b64)

	lines := strings.Split(strings.TrimRight(wrapped, "\r\n"), "\r\n")
	for i, line := range lines {
		if i < len(lines)-1 {
			assert.Len(t, line, 76)
		} else {
			assert.LessOrEqual(t, len(line), 76)
		}
	}
}

func TestBuildAndExtractSignedParts(t *testing.T) {
	inner := []byte("Content-Type: application/edi-x12\r\n\r\npayload bytes here")
	signature := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	wire := mimecodec.BuildMultipartSigned(inner, "sha256", signature)

	contentType := mimecodec.ExtractHeader(wire, "Content-Type")
	_, params, err := mimecodec.ParseContentType(contentType)
	require.NoError(t, err)
	boundary := params["boundary"]
	require.NotEmpty(t, boundary)

	signedContent, extractedSig, err := mimecodec.ExtractSignedParts(wire, boundary)
	require.NoError(t, err)
	assert.Equal(t, signature, extractedSig)
	assert.Contains(t, string(signedContent), "payload bytes here")
}

func TestExtractSignedParts_MissingBoundary(t *testing.T) {
	_, _, err := mimecodec.ExtractSignedParts([]byte("no boundary here"), "missing-boundary")
	assert.Error(t, err)
}

func TestWriteFilteredHeaders_SkipsTypeAndEncoding(t *testing.T) {
	headers := []byte("Content-Type: text/plain\r\nX-Custom: value\r\nContent-Transfer-Encoding: base64\r\n")
	var buf bytes.Buffer
	mimecodec.WriteFilteredHeaders(&buf, headers)

	result := buf.String()
	assert.Contains(t, result, "X-Custom: value")
	assert.NotContains(t, result, "Content-Type")
	assert.NotContains(t, result, "Content-Transfer-Encoding")
	assert.Contains(t, result, "MIME-Version: 1.0")
}
