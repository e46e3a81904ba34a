package as2crypto

import (
	"bytes"
	"compress/zlib"
	"encoding/asn1"
	"fmt"
	"io"
)

// RFC 3274 defines CMS CompressedData. Neither go.mozilla.org/pkcs7 nor
// any other library in the dependency set implements it (see DESIGN.md
// "Known library limitation" / stdlib-only section), so the ASN.1
// structure is built and parsed directly against encoding/asn1, and the
// payload itself is compressed with compress/zlib as RFC 3274 §2.1
// mandates (the zlibCompress algorithm, RFC 1950).

var (
	oidCompressedData  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 9}
	oidZlibCompress    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 3, 8}
	oidContentTypeData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
)

type algorithmIdentifier struct {
	Algorithm asn1.ObjectIdentifier
}

type encapsulatedContentInfo struct {
	EContentType asn1.ObjectIdentifier
	EContent     []byte `asn1:"explicit,tag:0"`
}

type compressedDataContent struct {
	Version              int
	CompressionAlgorithm algorithmIdentifier
	EncapContentInfo     encapsulatedContentInfo
}

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     compressedDataContent `asn1:"explicit,tag:0"`
}

// Compress builds a CMS CompressedData structure wrapping data,
// compressed with zlib (spec §4.1 Compress).
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}

	info := contentInfo{
		ContentType: oidCompressedData,
		Content: compressedDataContent{
			Version:              0,
			CompressionAlgorithm: algorithmIdentifier{Algorithm: oidZlibCompress},
			EncapContentInfo: encapsulatedContentInfo{
				EContentType: oidContentTypeData,
				EContent:     buf.Bytes(),
			},
		},
	}

	der, err := asn1.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compressed data: %w", err)
	}
	return der, nil
}

// Decompress parses a CMS CompressedData structure (DER or
// base64-wrapped) and inflates its zlib-compressed payload (spec §4.1
// Decompress).
func Decompress(der []byte) ([]byte, error) {
	var info contentInfo
	if _, err := asn1.Unmarshal(der, &info); err != nil {
		decoded, decErr := decodeBase64Loose(der)
		if decErr != nil {
			return nil, fmt.Errorf("failed to parse compressed data: %w", err)
		}
		if _, err := asn1.Unmarshal(decoded, &info); err != nil {
			return nil, fmt.Errorf("failed to parse compressed data: %w", err)
		}
	}
	if !info.ContentType.Equal(oidCompressedData) {
		return nil, fmt.Errorf("not a CompressedData content type")
	}

	r, err := zlib.NewReader(bytes.NewReader(info.Content.EncapContentInfo.EContent))
	if err != nil {
		return nil, fmt.Errorf("failed to open zlib stream: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate compressed data: %w", err)
	}
	return out, nil
}

// BuildCompressedMIMEPart wraps CMS CompressedData bytes in the
// application/pkcs7-mime envelope AS2 transmits for smime-type=compressed-data.
func BuildCompressedMIMEPart(compressed []byte) []byte {
	return buildSMIMEPart(compressed, "application/pkcs7-mime; smime-type=compressed-data; name=\"smime.p7z\"", "smime.p7z")
}
