package db

import (
	"context"
	"testing"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()
	hasher := security.NewHasher(4)

	cfg := config.Config{AdminEmail: "Root@Example.com", AdminPassword: "s3cret!!", AdminName: "Root"}

	require.NoError(t, EnsureAdminUser(ctx, users, hasher, cfg))

	u, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, user.RoleAdmin, u.Role)
	require.True(t, hasher.Verify("s3cret!!", u.PasswordHash))

	// second run is a no-op
	require.NoError(t, EnsureAdminUser(ctx, users, hasher, cfg))
	_, total, err := users.List(ctx, user.ListUsersFilter{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestEnsureAdminUserSkipsWithoutCredentials(t *testing.T) {
	users := memory.NewStore().Users()
	require.NoError(t, EnsureAdminUser(context.Background(), users, security.NewHasher(4), config.Config{}))

	_, total, err := users.List(context.Background(), user.ListUsersFilter{Limit: 10})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", migrateURL("postgres://u:p@h:5432/db?sslmode=disable"))
	require.Equal(t, "pgx5://h/db", migrateURL("postgresql://h/db"))
	require.Equal(t, "pgx5://h/db", migrateURL("pgx5://h/db"))
}
