package jobs

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

var Module = fx.Options(
	fx.Provide(NewScheduler),
	fx.Invoke(func(*cron.Cron) {}),
)

// NewScheduler schedules the background jobs and ties the scheduler to the
// fx lifecycle. Token purging is only scheduled when tokens expire.
func NewScheduler(lc fx.Lifecycle, cfg *config.Config, tokens *service.Tokens, logger *zap.SugaredLogger) (*cron.Cron, error) {
	c := cron.New()

	if cfg.TokenTTL > 0 {
		if _, err := c.AddJob(cfg.TokenPurgeSchedule, NewPurgeTokensJob(tokens, logger)); err != nil {
			return nil, errors.Wrap(err, "schedule token purge")
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping scheduler.")
			select {
			case <-c.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return c, nil
}
