package logging_test

import (
	"testing"

	"github.com/as2gw/gateway/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestWithComponent_TagsLoggerWithComponentName(t *testing.T) {
	log := logging.WithComponent("testcomponent")
	assert.NotNil(t, log)
}

func TestConfigure_InvalidLevelFallsBackWithoutPanicking(t *testing.T) {
	assert.NotPanics(t, func() {
		logging.Configure("not-a-real-level", false)
	})
}

func TestConfigure_DebugModeDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		logging.Configure("debug", true)
		logging.Configure("info", false)
	})
}
