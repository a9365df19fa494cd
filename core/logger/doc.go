// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance for both the operator CLI (console
// encoding, colored levels) and the HTTP server (json encoding).
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry, so all logs related to a specific request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "json"})
//	log.Info("roster refreshed", zap.String("country", "argentina"))
package logger
