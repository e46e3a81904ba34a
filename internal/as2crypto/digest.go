package as2crypto

import (
	"strings"

	"go.mozilla.org/pkcs7"
)

// normalizeDigestName strips dashes so "sha-256" and "sha256" select the
// same hash function (spec §4.1 MIC), and falls back to sha1 for an
// unrecognised algorithm name.
func normalizeDigestName(alg string) string {
	name := strings.ToLower(strings.ReplaceAll(alg, "-", ""))
	switch name {
	case "sha1", "sha256", "sha384", "sha512":
		return name
	default:
		return "sha1"
	}
}

// micalgFor returns the micalg Content-Type parameter value for a digest
// algorithm name, per RFC 5751 naming (sha-1, sha-256, ...).
func micalgFor(alg string) string {
	switch normalizeDigestName(alg) {
	case "sha256":
		return "sha-256"
	case "sha384":
		return "sha-384"
	case "sha512":
		return "sha-512"
	default:
		return "sha-1"
	}
}

func setSignedDataDigest(sd *pkcs7.SignedData, alg string) error {
	switch normalizeDigestName(alg) {
	case "sha256":
		return sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	case "sha384":
		return sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA384)
	case "sha512":
		return sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA512)
	default:
		return sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA1)
	}
}
