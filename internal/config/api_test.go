package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadAPIConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "api.config")

	cfg, err := LoadAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]string
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, map[string]string{"BaseUrl": defaultBaseURL}, onDisk)
}

func TestLoadAPIConfigReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.config")
	writeFile(t, path, `{"BaseUrl":"http://scores.local:8080"}`)

	cfg, err := LoadAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://scores.local:8080", cfg.BaseURL)
}

func TestLoadAPIConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.config")
	writeFile(t, path, `{"BaseUrl":"http://scores.local:8080"}`)
	t.Setenv("OVERLAY_BASEURL", "https://override.example:9443")

	cfg, err := LoadAPIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example:9443", cfg.BaseURL)
}

func TestLoadAPIConfigRejectsInvalidContent(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{"BaseUrl":`,
		"empty url":      `{"BaseUrl":"  "}`,
		"bad scheme":     `{"BaseUrl":"ftp://scores.local"}`,
		"missing host":   `{"BaseUrl":"http://"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "api.config")
			writeFile(t, path, content)

			_, err := LoadAPIConfig(path)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, path, cfgErr.Path)
		})
	}
}

func TestLoadAPIConfigUnreadablePath(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadAPIConfig(dir)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
