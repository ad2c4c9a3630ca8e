package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
)

// Tokens exchanges credentials for the bearer key of a user and resolves
// keys back to users. A user has at most one key at a time.
type Tokens struct {
	db       *gorm.DB
	identity *Identity
	logger   *zap.SugaredLogger
	ttl      time.Duration
	now      func() time.Time
}

func NewTokens(db *gorm.DB, identity *Identity, cfg *config.Config, l *zap.SugaredLogger) *Tokens {
	return &Tokens{
		db:       db,
		identity: identity,
		logger:   l,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
	}
}

// Issue returns the caller's existing token or creates one. An expired token
// is replaced.
func (s *Tokens) Issue(ctx context.Context, email, password string) (*db.Token, error) {
	user, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	tok := db.Token{}
	res := s.db.WithContext(ctx).Where(&db.Token{UserID: user.ID}).First(&tok)
	switch {
	case res.Error == nil && !s.expired(&tok):
		return &tok, nil
	case res.Error == nil:
		if err := s.db.WithContext(ctx).Delete(&tok).Error; err != nil {
			return nil, errors.Wrap(err, "delete expired token")
		}
	case !errors.Is(res.Error, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(res.Error, "find token")
	}

	tok = db.Token{
		Key:       newKey(),
		UserID:    user.ID,
		CreatedAt: s.now(),
	}
	if res := s.db.WithContext(ctx).Create(&tok); res.Error != nil {
		// a concurrent login of the same user may have won the race
		existing := db.Token{}
		if s.db.WithContext(ctx).Where(&db.Token{UserID: user.ID}).First(&existing).Error == nil {
			return &existing, nil
		}
		return nil, errors.Wrap(res.Error, "create token")
	}

	s.logger.Infow("token issued", "user_id", user.ID)
	return &tok, nil
}

// Resolve returns the active owner of key.
func (s *Tokens) Resolve(ctx context.Context, key string) (*db.User, error) {
	if key == "" {
		return nil, ErrUnauthenticated
	}

	tok := db.Token{}
	res := s.db.WithContext(ctx).Preload("User").Where(&db.Token{Key: key}).First(&tok)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(res.Error, "find token")
	}
	if s.expired(&tok) || !tok.User.IsActive {
		return nil, ErrInvalidToken
	}

	return &tok.User, nil
}

// PurgeExpired deletes expired tokens and returns how many were removed.
func (s *Tokens) PurgeExpired(ctx context.Context) (int64, error) {
	if s.ttl == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", s.now().Add(-s.ttl)).Delete(&db.Token{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge tokens")
	}
	return res.RowsAffected, nil
}

func (s *Tokens) expired(tok *db.Token) bool {
	return s.ttl > 0 && s.now().Sub(tok.CreatedAt) >= s.ttl
}

func newKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
