package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/models"
)

var Module = fx.Provide(NewGormClient)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email       string `gorm:"unique;not null"`
		Password    string `gorm:"not null"`
		Name        string `gorm:"size:80;not null"`
		IsActive    bool   `gorm:"not null"`
		IsStaff     bool   `gorm:"not null"`
		IsSuperuser bool   `gorm:"not null"`
	}

	// Token is the single bearer key of a user.
	Token struct {
		Key       string `gorm:"primarykey;size:40"`
		UserID    uint64 `gorm:"not null;uniqueIndex"`
		User      User
		CreatedAt time.Time
	}

	Tag struct {
		GormForkedModel
		Name   string `gorm:"size:255;not null"`
		UserID uint64 `gorm:"not null;index"`
		User   User
	}

	Ingredient struct {
		GormForkedModel
		Name   string `gorm:"size:255;not null"`
		UserID uint64 `gorm:"not null;index"`
		User   User
	}

	Recipe struct {
		GormForkedModel
		Title       string       `gorm:"size:255;not null"`
		TimeMinutes int          `gorm:"not null"`
		Price       models.Price `gorm:"column:price_cents;not null"`
		Link        *string      `gorm:"size:255"`
		UserID      uint64       `gorm:"not null;index"`
		User        User
		Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;"`
		Tags        []Tag        `gorm:"many2many:recipe_tags;"`
	}
)

const dbWaitInterval = time.Second

// NewGormClient connects to the configured database, waits until it answers
// and migrates the schema.
func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	db, err := Open(cfg, l)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBWaitTimeout)
	defer cancel()
	if err := WaitForDB(ctx, db, dbWaitInterval, l); err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open creates the connection pool without touching the database.
func Open(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DBPath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               NewLogger(l, cfg.Debug),
		DisableAutomaticPing: true,
		TranslateError:       true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if cfg.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer; ":memory:" is also per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "get sql db")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// NewLogger routes gorm's logger through zap.
func NewLogger(l *zap.SugaredLogger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(zap.NewStdLog(l.Desugar()), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Token{}); err != nil {
		return errors.Wrap(err, "migrate token")
	}
	if err := db.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := db.AutoMigrate(&Ingredient{}); err != nil {
		return errors.Wrap(err, "migrate ingredient")
	}
	if err := db.AutoMigrate(&Recipe{}); err != nil {
		return errors.Wrap(err, "migrate recipe")
	}
	return nil
}

// WaitForDB pings the database every interval until it answers or ctx is done.
func WaitForDB(ctx context.Context, db *gorm.DB, interval time.Duration, l *zap.SugaredLogger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}

	l.Info("Waiting for database...")
	for {
		err := sqlDB.PingContext(ctx)
		if err == nil {
			l.Info("Database available.")
			return nil
		}
		l.Infow("Database unavailable, retrying.", "interval", interval, "error", err)

		select {
		case <-ctx.Done():
			return errors.Wrap(err, "database did not become available")
		case <-time.After(interval):
		}
	}
}
