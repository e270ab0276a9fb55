// Package logging provides structured logging configuration for cdimock.
//
// This package wraps log/slog so that the server, the allocation store and the
// CLI share one handler configuration.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "addr", "0.0.0.0:443")
//
// Components accept a *slog.Logger through an option. If none is provided
// they use Nop().
package logging
