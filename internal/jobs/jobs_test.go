package jobs

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
)

type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

func TestPurgeTokensJob(t *testing.T) {
	p := &fakePurger{}
	NewPurgeTokensJob(p, zap.NewNop().Sugar()).Run()
	assert.Equal(t, 1, p.calls)

	p.err = errors.New("boom")
	NewPurgeTokensJob(p, zap.NewNop().Sugar()).Run()
	assert.Equal(t, 2, p.calls)
}

func TestNewScheduler(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	c, err := NewScheduler(lc, &config.Config{TokenTTL: 0}, nil, zap.NewNop().Sugar())
	assert.NoError(t, err)
	assert.Empty(t, c.Entries())

	c, err = NewScheduler(lc, &config.Config{TokenTTL: 1, TokenPurgeSchedule: "@hourly"}, nil, zap.NewNop().Sugar())
	assert.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = NewScheduler(lc, &config.Config{TokenTTL: 1, TokenPurgeSchedule: "not a schedule"}, nil, zap.NewNop().Sugar())
	assert.Error(t, err)

	lc.RequireStart().RequireStop()
}
