package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

// Claims is the subset of the access token the API relies on.
type Claims struct {
	UserID uint
	Role   string
}

type Service interface {
	Login(ctx context.Context, identifier, password string) (string, *User, error)
	IssueAccessToken(user *User) (string, error)
	ParseAccessToken(token string) (*Claims, error)
	GetUserByID(ctx context.Context, userID uint) (*User, error)
	HashPassword(password string) (string, error)
}

type service struct {
	repo         Repository
	accessSecret []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewService(r Repository, accessSecret string, accessTTL time.Duration) Service {
	return &service{
		repo:         r,
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

// =============================
// Login
// =============================

func (s *service) Login(ctx context.Context, identifier, password string) (string, *User, error) {
	identifier = strings.TrimSpace(identifier)
	email, phone := "", ""
	if strings.Contains(identifier, "@") {
		email = identifier
	} else {
		phone = identifier
	}

	user, err := s.repo.FindUserByEmailOrPhone(ctx, email, phone)
	if err != nil {
		if IsNotFound(err) {
			return "", nil, apperr.ErrInvalidCredentials
		}
		return "", nil, apperr.Internal("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return "", nil, apperr.WithMessage(apperr.ErrForbidden, "your account is inactive")
	}

	token, err := s.IssueAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *service) IssueAccessToken(user *User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     s.now().Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", apperr.Internal("sign access token", err)
	}
	return signed, nil
}

func (s *service) ParseAccessToken(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.accessSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, "invalid claims")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, "user_id missing in token")
	}
	role, _ := claims["role"].(string)
	return &Claims{UserID: uint(userID), Role: role}, nil
}

func (s *service) GetUserByID(ctx context.Context, userID uint) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, apperr.Internal("lookup user", err)
	}
	return user, nil
}

func (s *service) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apperr.WithMessage(apperr.ErrInvalidInput, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.WithMessage(apperr.ErrInvalidInput, "password is too long")
		}
		return "", apperr.Internal("hash password", err)
	}
	return string(hash), nil
}
