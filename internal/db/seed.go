package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
)

type SeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type SeedUser struct {
	Email    string
	Password string
	Name     string
	Role     user.Role
}

// SeedUsersFromConfig returns the bootstrap admin and regular user.
// Entries without an email or password are skipped.
func SeedUsersFromConfig(cfg config.Config) []SeedUser {
	if !cfg.SeedUsers {
		return nil
	}

	return []SeedUser{
		{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword, Name: cfg.SeedAdminName, Role: user.RoleAdmin},
		{Email: cfg.SeedUserEmail, Password: cfg.SeedUserPassword, Name: cfg.SeedUserName, Role: user.RoleUser},
	}
}

// EnsureUsers creates every seed whose email is not yet present. Existing
// records are left untouched, so running it on each boot is safe.
func EnsureUsers(ctx context.Context, store SeedStore, hasher PasswordHasher, seeds []SeedUser, log *slog.Logger) error {
	for _, s := range seeds {
		if s.Email == "" || s.Password == "" {
			continue
		}

		_, err := store.GetByEmail(ctx, s.Email)

		if err == nil {
			continue
		}

		if !errors.Is(err, user.ErrNotFound) {
			return fmt.Errorf("seed %s: %w", s.Email, err)
		}

		hash, err := hasher.Hash(s.Password)

		if err != nil {
			return fmt.Errorf("seed %s: %w", s.Email, err)
		}

		created, err := store.Create(ctx, user.NewFromCreateRequest(user.CreateUserRequest{
			Name:  s.Name,
			Email: s.Email,
			Role:  s.Role,
		}, hash))

		// another instance may have seeded between our lookup and insert
		if errors.Is(err, user.ErrEmailTaken) {
			continue
		}

		if err != nil {
			return fmt.Errorf("seed %s: %w", s.Email, err)
		}

		log.InfoContext(ctx, "seeded user", "id", created.ID, "email", created.Email, "role", created.Role)
	}

	return nil
}
