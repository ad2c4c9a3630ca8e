package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/jobs"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/proto"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/transport"
)

func main() {
	fx.New(
		fx.WithLogger(func(l *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Desugar()}
		}),
		config.Module,
		logger.Module,
		db.Module,
		service.Module,
		transport.Module,
		proto.Module,
		jobs.Module,
	).Run()
}
