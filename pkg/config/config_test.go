package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "hci1", cfg.Adapter)
	assert.Equal(t, "rooms.json", cfg.StatePath)
	assert.Equal(t, ":8037", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout())
	assert.Equal(t, 3600*time.Second, cfg.DispatchPeriod())
	assert.Equal(t, 300*time.Second, cfg.AutosavePeriod())
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tpmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"adapter: hci0\ndispatch_period_seconds: 60\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hci0", cfg.Adapter)
	assert.Equal(t, time.Minute, cfg.DispatchPeriod())
	assert.Equal(t, "debug", cfg.LogLevel)

	// Everything the file does not mention keeps its default.
	assert.Equal(t, "rooms.json", cfg.StatePath)
	assert.Equal(t, ":8037", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tpmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter: [\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     logrus.Level
	}{
		{name: "debug level", logLevel: "debug", want: logrus.DebugLevel},
		{name: "info level", logLevel: "info", want: logrus.InfoLevel},
		{name: "warn level", logLevel: "warn", want: logrus.WarnLevel},
		{name: "error level", logLevel: "error", want: logrus.ErrorLevel},
		{name: "nonsense falls back to info", logLevel: "shouting", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			require.NotNil(t, logger)
			assert.Equal(t, tt.want, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			require.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}
