package as2crypto

import (
	"bytes"
	"fmt"

	"github.com/as2gw/gateway/internal/mimecodec"
)

// buildSMIMEPart wraps base64-encoded CMS bytes with the given
// Content-Type in a standalone MIME part, as used for both the
// enveloped-data (encrypted) and compressed-data wire forms.
func buildSMIMEPart(data []byte, contentType, filename string) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", filename))
	buf.WriteString("MIME-Version: 1.0\r\n\r\n")
	buf.WriteString(mimecodec.Base76Wrap(encodeBase64Std(data)))
	return buf.Bytes()
}
