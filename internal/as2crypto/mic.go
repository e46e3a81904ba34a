package as2crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
)

// MIC computes the Message Integrity Check for data using the named
// digest algorithm, returning base64(digest) (spec §4.1 MIC). The
// algorithm name is dash-stripped before lookup and falls back to sha1
// when unrecognised, matching the wire convention of micalg values like
// "sha-256".
func MIC(data []byte, alg string) string {
	var h hash.Hash
	switch normalizeDigestName(alg) {
	case "sha256":
		h = sha256.New()
	case "sha384":
		h = sha512.New384()
	case "sha512":
		h = sha512.New()
	default:
		h = sha1.New()
	}
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
