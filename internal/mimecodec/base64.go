package mimecodec

import (
	"bytes"
	"encoding/base64"
)

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// decodeBase64 strips whitespace before decoding, since S/MIME bodies
// are wrapped at 76 characters with CRLF line endings.
func decodeBase64(data []byte) ([]byte, error) {
	cleaned := bytes.Join(bytes.Fields(data), nil)
	return base64.StdEncoding.DecodeString(string(cleaned))
}
