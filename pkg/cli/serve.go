package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cohdi/cdimock/pkg/config"
	"github.com/cohdi/cdimock/pkg/engine"
	"github.com/cohdi/cdimock/pkg/logging"
	"github.com/cohdi/cdimock/pkg/token"
	"github.com/spf13/cobra"
)

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveFlags holds all parsed command-line flags for the serve command.
type serveFlags struct {
	configFile string

	listen          string
	fixtureRoot     string
	confineFixtures bool
	readTimeout     int
	writeTimeout    int
	shutdownTimeout int

	// TLS flags
	tlsCert string
	tlsKey  string
	tlsAuto bool
	noTLS   bool

	// Logging flags
	logLevel  string
	logFormat string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stub server (foreground)",
	Long: `Start the stub server. Fixtures are read from the fixture root on every
request, so files can be edited while the server runs.

Settings are applied in order: built-in defaults, the --config file,
CDIMOCK_* environment variables, then any flag given explicitly.`,
	Example: `  # Serve ./in over HTTPS on 0.0.0.0:443 with certs/server.{crt,key}
  cdimock serve

  # Plain HTTP on a high port
  cdimock serve --no-tls --listen 127.0.0.1:8443

  # Generate a self-signed certificate when none exists
  cdimock serve --tls-auto --fixture-root ./testdata/in

  # Load settings from a file
  cdimock serve --config cdimock.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildServerConfig(&serveFlagVals, cmd.Flags().Changed, os.LookupEnv)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	// A bare "cdimock" serves with defaults, environment and nothing else.
	rootCmd.RunE = serveCmd.RunE

	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to YAML configuration file")
	serveCmd.Flags().StringVarP(&f.listen, "listen", "l", config.DefaultListen, "Address to listen on")
	serveCmd.Flags().StringVarP(&f.fixtureRoot, "fixture-root", "r", config.DefaultFixtureRoot, "Directory holding response fixtures")
	serveCmd.Flags().BoolVar(&f.confineFixtures, "confine-fixtures", false, "Reject fixture paths that resolve outside the fixture root")
	serveCmd.Flags().IntVar(&f.readTimeout, "read-timeout", config.DefaultReadTimeout, "Read timeout in seconds")
	serveCmd.Flags().IntVar(&f.writeTimeout, "write-timeout", config.DefaultWriteTimeout, "Write timeout in seconds")
	serveCmd.Flags().IntVar(&f.shutdownTimeout, "shutdown-timeout", config.DefaultShutdownTimeout, "Graceful shutdown timeout in seconds")

	// TLS flags
	serveCmd.Flags().StringVar(&f.tlsCert, "tls-cert", config.DefaultCertFile, "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&f.tlsKey, "tls-key", config.DefaultKeyFile, "Path to TLS private key file")
	serveCmd.Flags().BoolVar(&f.tlsAuto, "tls-auto", false, "Generate a self-signed certificate if the files are missing")
	serveCmd.Flags().BoolVar(&f.noTLS, "no-tls", false, "Serve plain HTTP")

	// Logging flags
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
}

// buildServerConfig layers the configuration file, the environment and the
// explicitly set flags over the defaults, then validates the result.
func buildServerConfig(f *serveFlags, changed func(string) bool, lookup func(string) (string, bool)) (*config.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if f.configFile != "" {
		loaded, err := config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if changed("listen") {
		cfg.Listen = f.listen
	}
	if changed("fixture-root") {
		cfg.FixtureRoot = f.fixtureRoot
	}
	if changed("confine-fixtures") {
		cfg.ConfineFixtures = f.confineFixtures
	}
	if changed("read-timeout") {
		cfg.ReadTimeout = f.readTimeout
	}
	if changed("write-timeout") {
		cfg.WriteTimeout = f.writeTimeout
	}
	if changed("shutdown-timeout") {
		cfg.ShutdownTimeout = f.shutdownTimeout
	}
	if changed("tls-cert") {
		cfg.TLS.CertFile = f.tlsCert
	}
	if changed("tls-key") {
		cfg.TLS.KeyFile = f.tlsKey
	}
	if changed("tls-auto") {
		cfg.TLS.Auto = f.tlsAuto
	}
	if changed("no-tls") {
		cfg.TLS.Disabled = f.noTLS
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// runServe starts the server and blocks until ctx is cancelled, a shutdown
// signal arrives or the server fails.
func runServe(ctx context.Context, cfg *config.ServerConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	logCfg.Format = logging.ParseFormat(cfg.Log.Format)
	log := logging.New(logCfg)

	if info, err := os.Stat(cfg.FixtureRoot); err != nil || !info.IsDir() {
		log.Warn("fixture root is not a readable directory; every fixture route will return 404",
			"fixtureRoot", cfg.FixtureRoot)
	}
	logTokenClaims(log, cfg.TokenResponse())

	srv, err := engine.NewServer(cfg, engine.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case <-srv.Done():
		return srv.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("shutdown timed out with requests in flight")
		}
		return err
	}
	return srv.Err()
}

func logTokenClaims(log *slog.Logger, resp token.Response) {
	claims, err := token.ParseClaims(resp.AccessToken)
	if err != nil {
		log.Warn("token endpoint serves a non-JWT access token", "error", err)
		return
	}
	log.Debug("token endpoint configured",
		"username", claims.Username,
		"expiresAt", claims.ExpiresAt,
		"scope", resp.Scope,
	)
}
