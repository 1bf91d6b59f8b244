package auth

import (
	"context"
	"strings"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

// SeedAdmin creates the first admin account. It does nothing when email is
// empty or a user with that email already exists. Reports whether a user
// was created.
func SeedAdmin(ctx context.Context, repo Repository, svc Service, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	_, err := repo.FindUserByEmailOrPhone(ctx, email, "")
	if err == nil {
		return false, nil
	}
	if !IsNotFound(err) {
		return false, apperr.Internal("lookup admin", err)
	}

	hash, err := svc.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &User{
		FullName:     "Administrator",
		Email:        &email,
		PasswordHash: hash,
		Role:         RoleAdmin,
		Status:       StatusActive,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return false, apperr.Internal("create admin", err)
	}
	return true, nil
}
