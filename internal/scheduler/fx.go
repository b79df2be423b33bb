package scheduler

import (
	"context"

	"go.uber.org/fx"

	"github.com/recordbay/recordbay/internal/config"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
)

func Register(lc fx.Lifecycle, s *Scheduler, cfg config.Config) {
	if !cfg.Scheduler.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return s.Start() },
		OnStop:  func(ctx context.Context) error { return s.Stop(ctx) },
	})
}
