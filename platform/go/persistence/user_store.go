package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GlobalUsersTable holds the system-wide identity rows.
const GlobalUsersTable = "public.users"

// ErrUserConflict indicates a username or email uniqueness violation.
var ErrUserConflict = errors.New("username or email already exists")

// CompanyUser is the joined read model across the global user table, the
// registry, and the tenant-scoped profile table.
type CompanyUser struct {
	UserUUID        uuid.UUID `db:"user_uuid"`
	UserID          int64     `db:"user_id"`
	UserExternalID  *string   `db:"user_external_id"`
	Fullname        string    `db:"fullname"`
	Username        string    `db:"username"`
	Email           string    `db:"email"`
	Avatar          *string   `db:"avatar"`
	CompanyID       uuid.UUID `db:"company_id"`
	CompanyName     string    `db:"company_name"`
	DatabaseName    string    `db:"database_name"`
	IsActive        bool      `db:"is_active"`
	IsEmailVerified bool      `db:"is_email_verified"`
	CreatedAt       time.Time `db:"created_at"`
}

// CreateTenantUserParams carries the fields for user provisioning. The
// password must already be hashed by the service layer.
type CreateTenantUserParams struct {
	CompanyID    uuid.UUID
	Fullname     string
	Username     string
	Email        string
	PasswordHash string
	RoleID       int
}

// CreatedTenantUser reports the identities generated during provisioning.
type CreatedTenantUser struct {
	UserUUID uuid.UUID
	UserID   int64
}

// UserStore provisions and reads users whose identity spans the global and
// tenant schemas.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a store instance bound to the primary pool.
func NewUserStore(ctx context.Context, pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

// CreateTenantUser inserts the global user row, the tenant profile row, and
// the role assignment in one transaction on one borrowed connection. Any step
// failing aborts the whole transaction; nothing persists.
func (s *UserStore) CreateTenantUser(ctx context.Context, params CreateTenantUserParams) (CreatedTenantUser, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CreatedTenantUser{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var userUUID uuid.UUID
	err = tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (company_id, username, email, password_hash, fullname, is_active, is_email_verified)
        VALUES ($1, $2, $3, $4, $5, TRUE, FALSE)
        RETURNING user_uuid
    `, GlobalUsersTable),
		params.CompanyID,
		strings.TrimSpace(params.Username),
		strings.TrimSpace(params.Email),
		params.PasswordHash,
		strings.TrimSpace(params.Fullname),
	).Scan(&userUUID)
	if err != nil {
		if isUniqueViolation(err) {
			return CreatedTenantUser{}, ErrUserConflict
		}
		return CreatedTenantUser{}, fmt.Errorf("insert global user: %w", err)
	}
	if userUUID == uuid.Nil {
		return CreatedTenantUser{}, errors.New("global user insert yielded no identity")
	}

	var databaseName string
	err = tx.QueryRow(ctx, fmt.Sprintf(
		"SELECT database_name FROM %s WHERE company_id = $1", CompaniesTable), params.CompanyID,
	).Scan(&databaseName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CreatedTenantUser{}, ErrCompanyNotFound
		}
		return CreatedTenantUser{}, fmt.Errorf("resolve tenant schema: %w", err)
	}

	schemaName, err := NormalizeSchemaName(databaseName)
	if err != nil {
		return CreatedTenantUser{}, err
	}

	var userID int64
	companyUsers := pgx.Identifier{schemaName, "company_users"}.Sanitize()
	err = tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_uuid, fullname, username, email)
        VALUES ($1, $2, $3, $4)
        RETURNING user_id
    `, companyUsers),
		userUUID, strings.TrimSpace(params.Fullname), strings.TrimSpace(params.Username), strings.TrimSpace(params.Email),
	).Scan(&userID)
	if err != nil {
		return CreatedTenantUser{}, fmt.Errorf("insert tenant user: %w", err)
	}

	userRoles := pgx.Identifier{schemaName, "user_roles"}.Sanitize()
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (user_id, role_id) VALUES ($1, $2)", userRoles), userID, params.RoleID,
	); err != nil {
		return CreatedTenantUser{}, fmt.Errorf("assign role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return CreatedTenantUser{}, fmt.Errorf("commit: %w", err)
	}

	return CreatedTenantUser{UserUUID: userUUID, UserID: userID}, nil
}

// ListCompanyUsers joins the global user rows with the tenant profile rows of
// the given company.
func (s *UserStore) ListCompanyUsers(ctx context.Context, companyID uuid.UUID) ([]CompanyUser, error) {
	var databaseName string
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT database_name FROM %s WHERE company_id = $1", CompaniesTable), companyID,
	).Scan(&databaseName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("resolve tenant schema: %w", err)
	}

	schemaName, err := NormalizeSchemaName(databaseName)
	if err != nil {
		return nil, err
	}

	companyUsers := pgx.Identifier{schemaName, "company_users"}.Sanitize()
	query := fmt.Sprintf(`
        SELECT
            u.user_uuid, cu.user_id, cu.user_external_id,
            u.fullname, u.username, u.email, cu.avatar,
            c.company_id, c.company_name, c.database_name,
            u.is_active, u.is_email_verified, u.created_at
        FROM %s c
        INNER JOIN %s u ON c.company_id = u.company_id
        INNER JOIN %s cu ON cu.user_uuid = u.user_uuid
        WHERE c.company_id = $1
        ORDER BY u.created_at DESC
    `, CompaniesTable, GlobalUsersTable, companyUsers)

	rows, err := s.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	defer rows.Close()

	users := make([]CompanyUser, 0)
	for rows.Next() {
		var u CompanyUser
		if err := rows.Scan(&u.UserUUID, &u.UserID, &u.UserExternalID,
			&u.Fullname, &u.Username, &u.Email, &u.Avatar,
			&u.CompanyID, &u.CompanyName, &u.DatabaseName,
			&u.IsActive, &u.IsEmailVerified, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company users: %w", err)
	}

	return users, nil
}
