// Package config provides the cdimock server configuration.
//
// Configuration is assembled once at startup, in increasing precedence:
//
//  1. DefaultServerConfig, which mirrors the production endpoints (listen on
//     0.0.0.0:443 with TLS from certs/server.crt and certs/server.key, fixtures
//     under ./in)
//  2. a YAML file (LoadFromFile)
//  3. CDIMOCK_* environment variables (ApplyEnv)
//  4. command-line flags, applied by the cli package
//
// The result is validated with Validate and is not modified afterwards.
//
// Example file:
//
//	listen: 127.0.0.1:8443
//	fixtureRoot: ./testdata/in
//	tls:
//	  auto: true
//	log:
//	  level: debug
//	token:
//	  scope: openid profile
package config
