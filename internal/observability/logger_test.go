// File: internal/observability/logger_test.go
package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/cartograph/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Run("should install a named global logger exactly once", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "cartograph-test",
		}, zapcore.AddSync(&discardSyncer{}))

		first := GetLogger()
		require.NotNil(t, first)

		// A second initialization must not replace the instance.
		Initialize(config.LoggerConfig{Level: "error", Format: "json", ServiceName: "other"},
			zapcore.AddSync(&discardSyncer{}))
		assert.Same(t, first, GetLogger())
	})

	t.Run("should fall back to info on an invalid level", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		Initialize(config.LoggerConfig{Level: "verbose-ish", Format: "json"},
			zapcore.AddSync(&discardSyncer{}))

		logger := GetLogger()
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("should serve a fallback before initialization", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()
		assert.NotNil(t, GetLogger())
	})
}

type discardSyncer struct{}

func (*discardSyncer) Write(p []byte) (int, error) { return len(p), nil }
func (*discardSyncer) Sync() error                 { return nil }
