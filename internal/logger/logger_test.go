package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		enabled zapcore.Level
		blocked zapcore.Level
	}{
		{"debug text", "debug", "text", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"warn json", "warn", "json", zapcore.WarnLevel, zapcore.InfoLevel},
		{"unknown level falls back to info", "loud", "text", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, tt.format)
			require.NoError(t, err)
			require.NotNil(t, l)

			core := l.Desugar().Core()
			assert.True(t, core.Enabled(tt.enabled))
			assert.False(t, core.Enabled(tt.blocked))
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := Nop()
	assert.Same(t, l, OrNop(l))
}
