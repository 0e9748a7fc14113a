package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/vsindex/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  config.LoggingConfig
		wantErr bool
		check   func(t *testing.T, logger *logrus.Logger)
	}{
		{
			name:   "json format stdout",
			config: config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.InfoLevel, logger.Level)
				_, ok := logger.Formatter.(*logrus.JSONFormatter)
				assert.True(t, ok)
				assert.Equal(t, os.Stdout, logger.Out)
			},
		},
		{
			name:   "text format stderr",
			config: config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"},
			check: func(t *testing.T, logger *logrus.Logger) {
				assert.Equal(t, logrus.DebugLevel, logger.Level)
				f, ok := logger.Formatter.(*logrus.TextFormatter)
				require.True(t, ok)
				// go test never runs with a terminal on stderr.
				assert.True(t, f.DisableColors)
			},
		},
		{
			name:    "invalid level",
			config:  config.LoggingConfig{Level: "chatty", Format: "text", Output: "stderr"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, logger)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vsindex.log")
	logger, err := New(config.LoggingConfig{
		Level:      "warn",
		Format:     "json",
		Output:     path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"kept"`)
	assert.NotContains(t, string(b), "dropped")
}

func TestWithComponent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	WithComponent(logger, "keyframes").Info("hello")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "keyframes", hook.LastEntry().Data["component"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Info("nothing") })
}
