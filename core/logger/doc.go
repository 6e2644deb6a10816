// Package logger provides the structured zap logger used across the service.
//
// The debug level selects zap's development configuration (ISO8601 timestamps,
// stack traces); every other level uses the production configuration at that
// level. Format selects json or console encoding.
//
// WithRayID attaches the request ray id stored by the rayid middleware, so all
// log lines for one HTTP request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Scheduler started")
//
//	l := logger.WithRayID(log, c)
//	l.Error("Reserve failed", zap.Error(err))
package logger
