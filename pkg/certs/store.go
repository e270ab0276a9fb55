package certs

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes a certificate and private key to PEM files, creating parent
// directories as needed. The key file is only readable by its owner.
func Save(cert *Certificate, certPath, keyPath string) error {
	if cert == nil {
		return errors.New("certificate cannot be nil")
	}

	for _, p := range []string{certPath, keyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	if err := os.WriteFile(certPath, cert.CertPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}
	if err := os.WriteFile(keyPath, cert.KeyPEM, 0o600); err != nil {
		// Clean up cert file if key write fails
		_ = os.Remove(certPath)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// Load reads a certificate/key pair for serving.
func Load(certPath, keyPath string) (tls.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair: %w", err)
	}
	return pair, nil
}

// Ensure loads the pair at certPath/keyPath, generating and saving a new
// self-signed one first when either file is missing. The returned bool reports
// whether a certificate was generated.
func Ensure(opts *Options, certPath, keyPath string) (tls.Certificate, bool, error) {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	if certErr == nil && keyErr == nil {
		pair, err := Load(certPath, keyPath)
		return pair, false, err
	}

	cert, err := Generate(opts)
	if err != nil {
		return tls.Certificate{}, false, err
	}
	if err := Save(cert, certPath, keyPath); err != nil {
		return tls.Certificate{}, false, err
	}

	pair, err := tls.X509KeyPair(cert.CertPEM, cert.KeyPEM)
	if err != nil {
		return tls.Certificate{}, false, fmt.Errorf("load generated key pair: %w", err)
	}
	return pair, true, nil
}
