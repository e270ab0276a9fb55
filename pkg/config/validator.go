package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/cohdi/cdimock/pkg/logging"
	"github.com/cohdi/cdimock/pkg/token"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the configuration and returns every problem found, joined.
func (c *ServerConfig) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		add("listen", "must be host:port: %v", err)
	}
	if c.FixtureRoot == "" {
		add("fixtureRoot", "is required")
	}
	if c.ReadTimeout < 0 {
		add("readTimeout", "must not be negative")
	}
	if c.WriteTimeout < 0 {
		add("writeTimeout", "must not be negative")
	}
	if c.ShutdownTimeout < 0 {
		add("shutdownTimeout", "must not be negative")
	}
	if !c.TLS.Disabled {
		if c.TLS.CertFile == "" {
			add("tls.certFile", "is required unless tls.disabled is set")
		}
		if c.TLS.KeyFile == "" {
			add("tls.keyFile", "is required unless tls.disabled is set")
		}
	}
	if !logging.ValidLevel(c.Log.Level) {
		add("log.level", "unknown level %q", c.Log.Level)
	}
	if !logging.ValidFormat(c.Log.Format) {
		add("log.format", "unknown format %q", c.Log.Format)
	}
	if c.Token.AccessToken != "" {
		if _, err := token.ParseClaims(c.Token.AccessToken); err != nil {
			add("token.accessToken", "%v", err)
		}
	}

	return errors.Join(errs...)
}
