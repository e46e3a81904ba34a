package mimecodec

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
)

// BuildMultipartSigned assembles a multipart/signed body around an
// already-serialized inner part and a detached CMS signature, writing
// the boundary markers by hand rather than through multipart.Writer:
// Go's multipart.Writer iterates a map for MIME parameters and Content-Type
// ordering is not guaranteed stable, which would make byte-for-byte
// reproduction across runs fragile. micalg and protocol are fixed
// literal strings instead.
func BuildMultipartSigned(innerPart []byte, micalg string, signature []byte) []byte {
	boundary := GenerateBoundary()
	var buf bytes.Buffer

	buf.Write(innerPart)
	if !bytes.HasSuffix(innerPart, []byte("\r\n")) {
		buf.WriteString("\r\n")
	}

	sigB64 := Base76Wrap(encodeBase64(signature))

	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/signed; protocol=\"application/pkcs7-signature\"; micalg=%s; boundary=\"%s\"\r\n", micalg, boundary))
	msg.WriteString("MIME-Version: 1.0\r\n\r\n")
	msg.WriteString("This is an S/MIME signed message.\r\n\r\n")
	msg.WriteString("--" + boundary + "\r\n")
	msg.Write(buf.Bytes())
	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: application/pkcs7-signature; name=\"smime.p7s\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("Content-Disposition: attachment; filename=\"smime.p7s\"\r\n\r\n")
	msg.WriteString(sigB64)
	msg.WriteString("--" + boundary + "--\r\n")

	return msg.Bytes()
}

// ExtractSignedParts locates the signed MIME part and the detached
// signature bytes within a multipart/signed body, scanning for the
// boundary markers directly on the raw byte stream so the signed
// content bytes handed back to the verifier are exactly what was
// transmitted, independent of how Go's multipart reader would
// re-segment or re-fold them.
func ExtractSignedParts(raw []byte, boundary string) (signedContent, signature []byte, err error) {
	boundaryLine := []byte("--" + boundary)

	firstIdx := bytes.Index(raw, boundaryLine)
	if firstIdx < 0 {
		return nil, nil, fmt.Errorf("boundary marker not found")
	}
	contentStart := firstIdx + len(boundaryLine)
	if bytes.HasPrefix(raw[contentStart:], []byte("\r\n")) {
		contentStart += 2
	} else if bytes.HasPrefix(raw[contentStart:], []byte("\n")) {
		contentStart++
	}

	endMarker := []byte("\r\n--" + boundary)
	newlineLen := 2
	endIdx := bytes.Index(raw[contentStart:], endMarker)
	if endIdx < 0 {
		endMarker = []byte("\n--" + boundary)
		newlineLen = 1
		endIdx = bytes.Index(raw[contentStart:], endMarker)
	}
	if endIdx < 0 {
		return nil, nil, fmt.Errorf("second boundary marker not found")
	}
	signedContent = raw[contentStart : contentStart+endIdx]

	// The signature part follows; use multipart.Reader for it since its
	// own byte-exactness does not matter once base64-decoded.
	rest := raw[contentStart+endIdx+newlineLen:]
	mr := multipart.NewReader(bytes.NewReader(rest), boundary)
	for {
		part, perr := mr.NextPart()
		if perr != nil {
			break
		}
		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if mediaType == "application/pkcs7-signature" || mediaType == "application/x-pkcs7-signature" {
			var sigBuf bytes.Buffer
			sigBuf.ReadFrom(part)
			decoded, derr := decodeBase64(sigBuf.Bytes())
			if derr == nil {
				signature = decoded
			} else {
				signature = sigBuf.Bytes()
			}
			break
		}
	}
	if signature == nil {
		return nil, nil, fmt.Errorf("signature part not found")
	}
	return signedContent, signature, nil
}
