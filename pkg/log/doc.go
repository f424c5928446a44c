// Package log provides the structured logging abstraction used by csvship.
//
// The Logger interface can be implemented on top of any logging library.
// A zerolog adapter and a no-op logger are provided.
//
// # Usage
//
// Console output at a chosen level:
//
//	logger, err := log.NewConsoleLogger(os.Stderr, "debug")
//
// Wrap an existing zerolog.Logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Discard everything (tests):
//
//	logger := log.NewNoopLogger()
//
// Loggers can be scoped with fields that are attached to every message:
//
//	runLog := log.With(logger, log.String("table", "Provider"))
package log
