// Package logger constructs the zap.SugaredLogger used throughout kvs.
package logger

import "go.uber.org/zap"

// New builds a production zap logger scoped to service, falling back to a
// development logger (and finally a no-op logger) if production config
// construction fails — this only happens on a broken logging sink, and a
// storage engine shouldn't refuse to start because of it.
func New(service string) *zap.SugaredLogger {
	log, err := zap.NewProduction()
	if err != nil {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		log = zap.NewNop()
	}
	return log.Sugar().With("service", service)
}
