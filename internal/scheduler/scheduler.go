// Package scheduler triggers the monthly billing batch. The cron entry fires
// on the 1st and bills the previous calendar month; a Redis lock keyed by
// period keeps overlapping replicas from running the same batch twice. The
// per-customer (customer, period) guard in billingrun makes a lost lock
// harmless, just noisier.
package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	billingrundomain "github.com/recordbay/recordbay/internal/billingrun/domain"
	"github.com/recordbay/recordbay/internal/clock"
	"github.com/recordbay/recordbay/internal/config"
	"github.com/recordbay/recordbay/internal/period"
)

const lockKeyPrefix = "recordbay:billing:batch:"

type Scheduler struct {
	log     *zap.Logger
	clock   clock.Clock
	runner  billingrundomain.Runner
	rdb     *redis.Client
	cron    *cron.Cron
	spec    string
	lockTTL time.Duration
}

type Param struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Runner billingrundomain.Runner
	Cfg    config.Config
	Redis  *redis.Client `optional:"true"`
}

func New(p Param) *Scheduler {
	ttl := p.Cfg.Scheduler.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler"),
		clock:   p.Clock,
		runner:  p.Runner,
		rdb:     p.Redis,
		cron:    cron.New(),
		spec:    p.Cfg.Scheduler.Spec,
		lockTTL: ttl,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx := context.Background()
		p := period.FromTime(s.clock.Now(ctx)).Previous()
		if err := s.RunBatch(ctx, p); err != nil {
			s.log.Error("scheduled billing batch", zap.String("period", p.String()), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// RunBatch executes the batch for one period, guarded by the distributed
// lock when Redis is configured.
func (s *Scheduler) RunBatch(ctx context.Context, p period.Period) error {
	acquired, release, err := s.acquireLock(ctx, p)
	if err != nil {
		return err
	}
	if !acquired {
		s.log.Info("billing batch already claimed by another replica",
			zap.String("period", p.String()))
		return nil
	}
	defer release()

	summary, err := s.runner.RunBilling(ctx, p)
	if err != nil {
		return err
	}
	s.log.Info("billing batch summary",
		zap.String("batch_id", summary.BatchID),
		zap.String("period", p.String()),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
	return nil
}

func (s *Scheduler) acquireLock(ctx context.Context, p period.Period) (bool, func(), error) {
	if s.rdb == nil {
		return true, func() {}, nil
	}
	key := lockKeyPrefix + p.String()
	ok, err := s.rdb.SetNX(ctx, key, s.clock.Now(ctx).Format(time.RFC3339), s.lockTTL).Result()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	return true, func() {
		if err := s.rdb.Del(context.Background(), key).Err(); err != nil {
			s.log.Warn("release batch lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
