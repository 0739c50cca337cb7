package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pagestage/pagestage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigDefaults(t *testing.T) {
	settings := validateConfig(Config{})

	assert.Equal(t, pagestage.DefaultPagesPerBuffer, settings.PagesPerBuffer)
	assert.False(t, settings.Debug)
}

func TestValidateConfigCustomValues(t *testing.T) {
	var config Config
	config.Collector.PagesPerBuffer = 16
	config.Logging.Debug = true

	settings := validateConfig(config)

	assert.Equal(t, 16, settings.PagesPerBuffer)
	assert.True(t, settings.Debug)
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	for _, pages := range []int{-1, -100, MaxReasonablePagesPerBuffer + 1} {
		var config Config
		config.Collector.PagesPerBuffer = pages

		settings := validateConfig(config)

		assert.Equal(t, pagestage.DefaultPagesPerBuffer, settings.PagesPerBuffer,
			"pages_per_buffer=%d should fall back to the default", pages)
	}
}

func TestLoadConfigFromINI(t *testing.T) {
	content := `[collector]
pages_per_buffer = 32

[logging]
debug = true
`
	path := filepath.Join(t.TempDir(), "pagestage.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings := LoadConfig([]string{path})

	assert.Equal(t, 32, settings.PagesPerBuffer)
	assert.True(t, settings.Debug)
}

func TestLoadConfigMissingFiles(t *testing.T) {
	settings := LoadConfig([]string{
		filepath.Join(t.TempDir(), "does-not-exist.conf"),
	})

	assert.Equal(t, pagestage.DefaultPagesPerBuffer, settings.PagesPerBuffer)
	assert.False(t, settings.Debug)
}

func TestLoadConfigSkipsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.conf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	full := filepath.Join(dir, "full.conf")
	require.NoError(t, os.WriteFile(full, []byte("[collector]\npages_per_buffer = 4\n"), 0o644))

	settings := LoadConfig([]string{empty, full})

	assert.Equal(t, 4, settings.PagesPerBuffer)
}
