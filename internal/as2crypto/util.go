package as2crypto

import "encoding/base64"

func encodeBase64Std(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
