package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

const purgeTimeout = time.Minute

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

var _ TokenPurger = (*service.Tokens)(nil)

// PurgeTokensJob deletes expired bearer tokens.
type PurgeTokensJob struct {
	tokens TokenPurger
	logger *zap.SugaredLogger
}

func NewPurgeTokensJob(tokens TokenPurger, logger *zap.SugaredLogger) *PurgeTokensJob {
	return &PurgeTokensJob{
		tokens: tokens,
		logger: logger,
	}
}

// Run implements cron.Job.
func (j *PurgeTokensJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := j.tokens.PurgeExpired(ctx)
	if err != nil {
		j.logger.Warnw("purge tokens job failed", "error", err)
		return
	}
	if n != 0 {
		j.logger.Infow("purged expired tokens", "count", n)
	}
}
