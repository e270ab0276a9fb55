package config

import (
	"github.com/cohdi/cdimock/pkg/token"
)

// Default values.
const (
	DefaultListen          = "0.0.0.0:443"
	DefaultFixtureRoot     = "./in"
	DefaultCertFile        = "certs/server.crt"
	DefaultKeyFile         = "certs/server.key"
	DefaultReadTimeout     = 30
	DefaultWriteTimeout    = 30
	DefaultShutdownTimeout = 10
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// ServerConfig holds the server settings.
type ServerConfig struct {
	// Listen is the host:port the server binds.
	Listen string `json:"listen" yaml:"listen"`

	// FixtureRoot is the directory fixture paths are resolved against.
	FixtureRoot string `json:"fixtureRoot" yaml:"fixtureRoot"`

	// ConfineFixtures rejects fixture paths that escape FixtureRoot after
	// path parameters are substituted.
	ConfineFixtures bool `json:"confineFixtures" yaml:"confineFixtures"`

	// Timeouts in seconds.
	ReadTimeout     int `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    int `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout int `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	TLS TLSConfig `json:"tls" yaml:"tls"`
	Log LogConfig `json:"log" yaml:"log"`

	// Token overrides fields of the fixed token response. Zero fields keep
	// their default.
	Token token.Response `json:"token" yaml:"token"`
}

// TLSConfig configures HTTPS.
type TLSConfig struct {
	// Disabled serves plain HTTP.
	Disabled bool `json:"disabled" yaml:"disabled"`
	// CertFile and KeyFile are PEM files.
	CertFile string `json:"certFile" yaml:"certFile"`
	KeyFile  string `json:"keyFile" yaml:"keyFile"`
	// Auto generates a self-signed certificate into CertFile and KeyFile
	// when they do not exist.
	Auto bool `json:"auto" yaml:"auto"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultServerConfig returns the default configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen:          DefaultListen,
		FixtureRoot:     DefaultFixtureRoot,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		TLS: TLSConfig{
			CertFile: DefaultCertFile,
			KeyFile:  DefaultKeyFile,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// TokenResponse returns the token payload with configured overrides applied.
func (c *ServerConfig) TokenResponse() token.Response {
	return token.Default().Merge(c.Token)
}
