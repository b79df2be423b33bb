// Package observability wires structured logging, tracing and metrics export.
package observability

import (
	"go.uber.org/zap"

	"github.com/recordbay/recordbay/internal/config"
)

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
