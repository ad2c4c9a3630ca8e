package service

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
)

type (
	Identity struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
		cost   int

		dummyOnce sync.Once
		dummyHash []byte
	}

	// UserFields are the optional attributes of a new user.
	UserFields struct {
		Name        string
		IsStaff     bool
		IsSuperuser bool
	}

	// ProfilePatch holds the fields a user may change on their own account.
	// Nil fields are left untouched.
	ProfilePatch struct {
		Email    *string
		Name     *string
		Password *string
	}
)

func NewIdentity(db *gorm.DB, cfg *config.Config, l *zap.SugaredLogger) *Identity {
	return &Identity{
		db:     db,
		logger: l,
		cost:   cfg.BcryptCost,
	}
}

// NormalizeEmail trims and lower-cases email so that case variants map to
// one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Identity) CreateUser(ctx context.Context, email, password string, extra UserFields) (*db.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errEmailRequired()
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errEmailTaken()
	}

	hash, err := s.bcryptGen(password)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}

	user := db.User{
		Email:       email,
		Password:    hash,
		Name:        extra.Name,
		IsActive:    true,
		IsStaff:     extra.IsStaff,
		IsSuperuser: extra.IsSuperuser,
	}
	res := s.db.WithContext(ctx).Create(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, errEmailTaken()
		}
		return nil, errors.Wrap(res.Error, "create user")
	}

	s.logger.Infow("user created", "user_id", user.ID, "staff", user.IsStaff)
	return &user, nil
}

func (s *Identity) CreateSuperuser(ctx context.Context, email, password, name string) (*db.User, error) {
	return s.CreateUser(ctx, email, password, UserFields{
		Name:        name,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

// Authenticate returns the active user matching the credentials. Unknown
// emails, wrong passwords and inactive accounts all yield
// ErrInvalidCredentials.
func (s *Identity) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			// keep the timing of unknown emails close to wrong passwords
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(res.Error, "find user")
	}

	if err := s.bcryptCheck(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *Identity) GetSelf(ctx context.Context, caller *db.User) (*db.User, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	user := db.User{}
	res := s.db.WithContext(ctx).First(&user, caller.ID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(res.Error, "get user")
	}
	return &user, nil
}

func (s *Identity) UpdateSelf(ctx context.Context, caller *db.User, patch ProfilePatch) (*db.User, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	updates := map[string]interface{}{}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email == "" {
			return nil, errEmailRequired()
		}
		taken, err := s.emailTaken(ctx, email, caller.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errEmailTaken()
		}
		updates["email"] = email
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errNameBlank()
		}
		updates["name"] = name
	}
	if patch.Password != nil {
		hash, err := s.bcryptGen(*patch.Password)
		if err != nil {
			return nil, errors.Wrap(err, "bcryptGen")
		}
		updates["password"] = hash
	}

	if len(updates) != 0 {
		res := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", caller.ID).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, errEmailTaken()
			}
			return nil, errors.Wrap(res.Error, "update user")
		}
	}

	return s.GetSelf(ctx, caller)
}

// ListUsers returns every account. Only staff may call it.
func (s *Identity) ListUsers(ctx context.Context, caller *db.User) ([]db.User, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if !caller.IsStaff {
		return nil, ErrPermissionDenied
	}

	users := make([]db.User, 0)
	res := s.db.WithContext(ctx).Order("id").Find(&users)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list users")
	}
	return users, nil
}

func (s *Identity) emailTaken(ctx context.Context, email string, exceptID uint64) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if res := q.Count(&count); res.Error != nil {
		return false, errors.Wrap(res.Error, "count users")
	}
	return count != 0, nil
}

func (s *Identity) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *Identity) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}

func (s *Identity) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("recipebook"), s.cost)
	})
	return s.dummyHash
}
