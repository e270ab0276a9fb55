package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrEmptyFile    = errors.New("configuration file is empty")
)

// Environment variables read by ApplyEnv.
const (
	EnvListen      = "CDIMOCK_LISTEN"
	EnvFixtureRoot = "CDIMOCK_FIXTURE_ROOT"
	EnvTLSCert     = "CDIMOCK_TLS_CERT"
	EnvTLSKey      = "CDIMOCK_TLS_KEY"
	EnvNoTLS       = "CDIMOCK_NO_TLS"
	EnvLogLevel    = "CDIMOCK_LOG_LEVEL"
	EnvLogFormat   = "CDIMOCK_LOG_FORMAT"
)

// LoadFromFile reads a YAML configuration file on top of the defaults.
// Keys absent from the file keep their default values.
func LoadFromFile(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML configuration on top of the defaults.
func ParseYAML(data []byte) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with CDIMOCK_* variables found by lookup.
// Pass os.LookupEnv in production.
func ApplyEnv(cfg *ServerConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListen); ok && v != "" {
		cfg.Listen = v
	}
	if v, ok := lookup(EnvFixtureRoot); ok && v != "" {
		cfg.FixtureRoot = v
	}
	if v, ok := lookup(EnvTLSCert); ok && v != "" {
		cfg.TLS.CertFile = v
	}
	if v, ok := lookup(EnvTLSKey); ok && v != "" {
		cfg.TLS.KeyFile = v
	}
	if v, ok := lookup(EnvNoTLS); ok && v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNoTLS, err)
		}
		cfg.TLS.Disabled = disabled
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = v
	}
	return nil
}
