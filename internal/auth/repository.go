package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repository is the identity store consumed by the rest of the service.
type Repository interface {
	FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*User, error)
	FindByID(ctx context.Context, userID uint) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, user *User) error
}

type repository struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// FindUserByEmailOrPhone matches either contact. Returns gorm.ErrRecordNotFound
// when neither matches.
func (r *repository) FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, gorm.ErrRecordNotFound
	}

	query := r.db.WithContext(ctx).Model(&User{})
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var u User
	if err := query.Order("id ASC").First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, userID uint) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateUser(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) UpdateUser(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// IsNotFound reports whether err means the user does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
