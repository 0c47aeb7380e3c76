package auth

import (
	"context"
	"time"

	"github.com/greenshelf/catalog/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserRepository persists registered users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	TouchLogin(ctx context.Context, id int64, at time.Time) error
}

// GormUserRepository is the GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(domain.ErrNotFound, "user %s", email)
	} else if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return &user, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&domain.User{}).Where("email = ?", user.Email).Count(&exists).Error; err != nil {
			return errors.Wrap(err, "query user email")
		}
		if exists > 0 {
			return errors.Wrap(domain.ErrConflict, "email already registered")
		}
		if err := tx.Create(user).Error; errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrap(domain.ErrConflict, "email already registered")
		} else if err != nil {
			return errors.Wrap(err, "create user")
		}
		return nil
	})
}

func (r *GormUserRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("last_login", at).Error
	return errors.Wrap(err, "update last login")
}
