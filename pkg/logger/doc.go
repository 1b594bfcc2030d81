// Package logger builds the service's *slog.Logger.
//
// New takes functional options for format, level, static attributes and
// ContextExtractor callbacks. Extractors run on every record and are how
// request ids reach the log line without being passed around explicitly.
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Parse(cfg.AppEnv), cfg.AppName),
//	    logger.WithLevelName(cfg.LogLevel),
//	    logger.WithContextExtractors(requestid.LogExtractor),
//	)
//
// attr.go holds constructors that keep attribute keys consistent across
// packages. Email masks the local part of an address; subscriber addresses
// must only be logged through it.
package logger
