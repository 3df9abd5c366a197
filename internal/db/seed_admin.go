package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// EnsureAdminUser creates the configured first admin if no user holds that
// email yet. An existing account is left untouched.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher PasswordHasher, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists
	_, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u, err := store.Create(ctx, user.NewUser{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})

	// lost a race with another instance seeding the same account
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("admin user seeded", "user_id", u.ID, "email", u.Email)
	return nil
}
