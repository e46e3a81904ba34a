package as2crypto_test

import (
	"strings"
	"testing"

	"github.com/as2gw/gateway/internal/as2crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress_RoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("EDI segment data\r\n", 50))

	compressed, err := as2crypto.Compress(original)
	require.NoError(t, err)
	assert.NotEmpty(t, compressed)

	decompressed, err := as2crypto.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestDecompress_RejectsNonCompressedData(t *testing.T) {
	_, err := as2crypto.Decompress([]byte("not a valid CMS CompressedData structure"))
	assert.Error(t, err)
}

func TestBuildCompressedMIMEPart(t *testing.T) {
	compressed, err := as2crypto.Compress([]byte("data"))
	require.NoError(t, err)

	part := as2crypto.BuildCompressedMIMEPart(compressed)
	assert.Contains(t, string(part), "smime-type=compressed-data")
	assert.Contains(t, string(part), "smime.p7z")
}
