package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupCompany(t *testing.T, ctx context.Context, store *CompanyStore) CompanyRecord {
	t.Helper()
	schema := uniqueSchema("it_users")
	created, err := store.Create(ctx, CompanyRecord{
		CompanyID:             uuid.New(),
		CompanyName:           "Userland",
		DatabaseName:          schema,
		SubscriptionExpiresAt: time.Now().UTC().AddDate(0, 0, 365),
		IsActive:              true,
	})
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, schema))
	t.Cleanup(func() {
		_, _ = store.Delete(context.Background(), created.CompanyID)
	})
	return created
}

func TestCreateTenantUserAndList(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()
	companies, err := NewCompanyStore(ctx, pool)
	require.NoError(t, err)
	users, err := NewUserStore(ctx, pool)
	require.NoError(t, err)

	company := setupCompany(t, ctx, companies)

	username := fmt.Sprintf("ada_%d", time.Now().UnixNano())
	created, err := users.CreateTenantUser(ctx, CreateTenantUserParams{
		CompanyID:    company.CompanyID,
		Fullname:     "Ada Admin",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$notarealbcrypthashbutokay",
		RoleID:       1,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.UserUUID)
	require.Positive(t, created.UserID)

	listed, err := users.ListCompanyUsers(ctx, company.CompanyID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, created.UserUUID, listed[0].UserUUID)
	require.Equal(t, company.CompanyName, listed[0].CompanyName)

	// same username again violates the global uniqueness constraint
	_, err = users.CreateTenantUser(ctx, CreateTenantUserParams{
		CompanyID:    company.CompanyID,
		Fullname:     "Ada Clone",
		Username:     username,
		Email:        "other_" + username + "@example.com",
		PasswordHash: "$2a$10$notarealbcrypthashbutokay",
		RoleID:       1,
	})
	require.ErrorIs(t, err, ErrUserConflict)
}

func TestCreateTenantUserIsAtomic(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()
	companies, err := NewCompanyStore(ctx, pool)
	require.NoError(t, err)
	users, err := NewUserStore(ctx, pool)
	require.NoError(t, err)

	company := setupCompany(t, ctx, companies)

	// the role assignment fails, so neither the global row nor the tenant
	// profile may survive
	username := fmt.Sprintf("ghost_%d", time.Now().UnixNano())
	_, err = users.CreateTenantUser(ctx, CreateTenantUserParams{
		CompanyID:    company.CompanyID,
		Fullname:     "Ghost",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$notarealbcrypthashbutokay",
		RoleID:       999,
	})
	require.Error(t, err)

	var globalCount int
	require.NoError(t, pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE username = $1", GlobalUsersTable), username,
	).Scan(&globalCount))
	require.Zero(t, globalCount)

	var tenantCount int
	require.NoError(t, pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s.company_users", company.DatabaseName),
	).Scan(&tenantCount))
	require.Zero(t, tenantCount)
}

func TestCreateTenantUserUnknownCompany(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()
	users, err := NewUserStore(ctx, pool)
	require.NoError(t, err)

	_, err = users.CreateTenantUser(ctx, CreateTenantUserParams{
		CompanyID:    uuid.New(),
		Fullname:     "Nobody",
		Username:     fmt.Sprintf("nobody_%d", time.Now().UnixNano()),
		Email:        "nobody@example.com",
		PasswordHash: "$2a$10$notarealbcrypthashbutokay",
		RoleID:       1,
	})
	require.ErrorIs(t, err, ErrCompanyNotFound)
}
