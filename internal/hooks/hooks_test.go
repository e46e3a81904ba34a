package hooks_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/as2gw/gateway/internal/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_BlankCommandIsNoop(t *testing.T) {
	err := hooks.Run("", hooks.Vars{})
	assert.NoError(t, err)

	err = hooks.Run("   ", hooks.Vars{})
	assert.NoError(t, err)
}

func TestRun_SubstitutesVarsAndExecutes(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "out.txt")
	source := filepath.Join(dir, "invoice.edi")
	require.NoError(t, os.WriteFile(source, []byte("test payload"), 0o600))

	vars := hooks.Vars{
		Filename:     "invoice.edi",
		FullFilename: source,
		Sender:       "ACME",
		Receiver:     "WIDGETCO",
		MessageID:    "abc123",
	}

	cmd := "cp ${fullfilename} " + marker
	err := hooks.Run(cmd, vars)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRun_UnknownCommandStartFails(t *testing.T) {
	err := hooks.Run("this-binary-does-not-exist-anywhere --flag", hooks.Vars{})
	assert.Error(t, err)
}
