package main

import (
	"context"
	"flag"
	"time"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/logger"
)

var (
	timeout  = flag.Duration("timeout", 0, "give up after this long, defaults to RECIPEBOOK_DB_WAIT_TIMEOUT")
	interval = flag.Duration("interval", time.Second, "delay between attempts")
)

func main() {
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	l, err := logger.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = l.Sync() }()

	gdb, err := db.Open(cfg, l)
	if err != nil {
		l.Fatalw("Failed to open database", "error", err)
	}

	wait := cfg.DBWaitTimeout
	if *timeout > 0 {
		wait = *timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := db.WaitForDB(ctx, gdb, *interval, l); err != nil {
		l.Fatalw("Database unavailable", "error", err)
	}
}
