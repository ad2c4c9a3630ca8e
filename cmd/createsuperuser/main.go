package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

var (
	email    = flag.String("email", "", "superuser email")
	password = flag.String("password", "", "superuser password, defaults to $RECIPEBOOK_SUPERUSER_PASSWORD")
	name     = flag.String("name", "", "display name")
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

	pw := *password
	if pw == "" {
		pw = os.Getenv("RECIPEBOOK_SUPERUSER_PASSWORD")
	}
	if *email == "" || pw == "" {
		flag.Usage()
		os.Exit(2)
	}

	gdb, err := db.NewGormClient(cfg, l)
	if err != nil {
		l.Fatalw("Failed to open database", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user, err := service.NewIdentity(gdb, cfg, l).CreateSuperuser(ctx, *email, pw, *name)
	if err != nil {
		l.Fatalw("Failed to create superuser", "error", err)
	}
	l.Infow("Superuser created.", "id", user.ID, "email", user.Email)
}
