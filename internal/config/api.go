package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig is the content of the scoring server settings file.
type APIConfig struct {
	BaseURL string
}

// apiFile is the on-disk shape; the key casing is part of the file format.
type apiFile struct {
	BaseURL string `json:"BaseUrl"`
}

// ConfigError reports a missing, unreadable or invalid settings file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadAPIConfig reads the settings file at path, writing a default one first if it does not exist.
func LoadAPIConfig(path string) (APIConfig, error) {
	if path == "" {
		path = defaultAPIConfigPath
	}
	if err := ensureAPIConfig(path); err != nil {
		return APIConfig{}, &ConfigError{Path: path, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(apiEnvPrefix)
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return APIConfig{}, &ConfigError{Path: path, Err: err}
	}

	baseURL := strings.TrimSpace(v.GetString(keyBaseURL))
	if err := validateBaseURL(baseURL); err != nil {
		return APIConfig{}, &ConfigError{Path: path, Err: err}
	}
	return APIConfig{BaseURL: baseURL}, nil
}

func ensureAPIConfig(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.Marshal(apiFile{BaseURL: defaultBaseURL})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("BaseUrl must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BaseUrl: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BaseUrl %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid BaseUrl %q: missing host", raw)
	}
	return nil
}
