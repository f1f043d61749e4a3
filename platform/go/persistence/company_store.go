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

	sqlassets "github.com/solusisistem/internal-admin/database"
)

// CompaniesTable is the fully-qualified tenant registry table.
const CompaniesTable = "public.companies"

var (
	// ErrCompanyNotFound indicates a missing tenant registry row.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrCompanyConflict indicates a database_name uniqueness violation.
	ErrCompanyConflict = errors.New("company database name already exists")
)

// CompanyRecord represents a row in the tenant registry.
type CompanyRecord struct {
	CompanyID             uuid.UUID  `db:"company_id"`
	CompanyName           string     `db:"company_name"`
	CompanyCode           *string    `db:"company_code"`
	DatabaseName          string     `db:"database_name"`
	SubscriptionExpiresAt time.Time  `db:"subscription_expires_at"`
	IsActive              bool       `db:"is_active"`
	CreatedAt             time.Time  `db:"created_at"`
}

// CompanyListSpec is the allow-list for the companies listing endpoint.
var CompanyListSpec = ListSpec{
	FilterColumns:  map[string]string{"is_active": "is_active"},
	SearchColumns:  []string{"company_name", "company_code"},
	SortColumns:    map[string]string{"company_name": "company_name", "created_at": "created_at", "subscription_expires_at": "subscription_expires_at"},
	DefaultSort:    "created_at",
	DefaultSortKey: "created_at",
	DefaultOrder:   SortDesc,
}

const companyColumns = "company_id, company_name, company_code, database_name, subscription_expires_at, is_active, created_at"

// CompanyStore provides access to the tenant registry and tenant schema DDL.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore creates a store; assumes migrations already created the registry table.
func NewCompanyStore(ctx context.Context, pool *pgxpool.Pool) (*CompanyStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &CompanyStore{pool: pool}, nil
}

// List returns registry rows matching the list query plus the total count.
func (s *CompanyStore) List(ctx context.Context, q ListQuery) ([]CompanyRecord, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", CompaniesTable, q.Where)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", companyColumns, CompaniesTable, q.Where, q.OrderBy, q.Paging)
	rows, err := s.pool.Query(ctx, query, q.AllArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	records := make([]CompanyRecord, 0)
	for rows.Next() {
		rec, scanErr := scanCompany(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan company: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate companies: %w", err)
	}

	return records, total, nil
}

// Get returns a single registry row by id.
func (s *CompanyStore) Get(ctx context.Context, id uuid.UUID) (CompanyRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE company_id = $1", companyColumns, CompaniesTable), id)

	rec, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanyRecord{}, ErrCompanyNotFound
		}
		return CompanyRecord{}, err
	}
	return rec, nil
}

// Create provisions the tenant schema, its base tables, and the registry row
// in one transaction. Baseline data population is a separate step (Seed).
func (s *CompanyStore) Create(ctx context.Context, rec CompanyRecord) (CompanyRecord, error) {
	schemaName, err := NormalizeSchemaName(rec.DatabaseName)
	if err != nil {
		return CompanyRecord{}, err
	}
	rec.DatabaseName = schemaName

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CompanyRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	createSchema := fmt.Sprintf("CREATE SCHEMA %s", pgx.Identifier{schemaName}.Sanitize())
	if _, err := tx.Exec(ctx, createSchema); err != nil {
		if isDuplicateSchema(err) {
			return CompanyRecord{}, ErrCompanyConflict
		}
		return CompanyRecord{}, fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schemaName+", public"); err != nil {
		return CompanyRecord{}, fmt.Errorf("set search_path: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlassets.TenantTablesSQL); err != nil {
		return CompanyRecord{}, fmt.Errorf("create tenant tables: %w", err)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (company_id, company_name, company_code, database_name, subscription_expires_at, is_active)
        VALUES ($1, $2, $3, $4, $5, TRUE)
        RETURNING %s
    `, CompaniesTable, companyColumns),
		rec.CompanyID, strings.TrimSpace(rec.CompanyName), rec.CompanyCode, rec.DatabaseName, rec.SubscriptionExpiresAt,
	)

	out, err := scanCompany(row)
	if err != nil {
		if isUniqueViolation(err) {
			return CompanyRecord{}, ErrCompanyConflict
		}
		return CompanyRecord{}, fmt.Errorf("insert company: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return CompanyRecord{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// Seed applies the baseline tenant data inside the given schema. It commits
// independently of Create: a failure here leaves the registry row in place.
func (s *CompanyStore) Seed(ctx context.Context, schemaName string) error {
	schemaName, err := NormalizeSchemaName(schemaName)
	if err != nil {
		return err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schemaName+", public"); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlassets.TenantSeedSQL); err != nil {
		return fmt.Errorf("seed tenant data: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateCompanyParams represents admin-editable registry fields. Nil fields are left untouched.
type UpdateCompanyParams struct {
	CompanyName           *string
	CompanyCode           *string
	DatabaseName          *string
	SubscriptionExpiresAt *time.Time
	IsActive              *bool
}

// Update applies the provided fields and returns the updated row.
func (s *CompanyStore) Update(ctx context.Context, id uuid.UUID, params UpdateCompanyParams) (CompanyRecord, error) {
	setParts := []string{}
	var args []any

	if params.CompanyName != nil {
		args = append(args, strings.TrimSpace(*params.CompanyName))
		setParts = append(setParts, fmt.Sprintf("company_name = $%d", len(args)))
	}
	if params.CompanyCode != nil {
		args = append(args, *params.CompanyCode)
		setParts = append(setParts, fmt.Sprintf("company_code = $%d", len(args)))
	}
	if params.DatabaseName != nil {
		schemaName, err := NormalizeSchemaName(*params.DatabaseName)
		if err != nil {
			return CompanyRecord{}, err
		}
		args = append(args, schemaName)
		setParts = append(setParts, fmt.Sprintf("database_name = $%d", len(args)))
	}
	if params.SubscriptionExpiresAt != nil {
		args = append(args, params.SubscriptionExpiresAt.UTC())
		setParts = append(setParts, fmt.Sprintf("subscription_expires_at = $%d", len(args)))
	}
	if params.IsActive != nil {
		args = append(args, *params.IsActive)
		setParts = append(setParts, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return CompanyRecord{}, errors.New("no fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE company_id = $%d RETURNING %s",
		CompaniesTable, strings.Join(setParts, ", "), len(args), companyColumns)

	rec, err := scanCompany(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanyRecord{}, ErrCompanyNotFound
		}
		if isUniqueViolation(err) {
			return CompanyRecord{}, ErrCompanyConflict
		}
		return CompanyRecord{}, err
	}
	return rec, nil
}

// Delete irreversibly drops the tenant schema and removes the registry row
// (plus its global users) in a single transaction. There is no recovery path.
func (s *CompanyStore) Delete(ctx context.Context, id uuid.UUID) (CompanyRecord, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CompanyRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	rec, err := scanCompany(tx.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE company_id = $1", companyColumns, CompaniesTable), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanyRecord{}, ErrCompanyNotFound
		}
		return CompanyRecord{}, err
	}

	schemaName, err := NormalizeSchemaName(rec.DatabaseName)
	if err != nil {
		return CompanyRecord{}, err
	}

	dropSchema := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{schemaName}.Sanitize())
	if _, err := tx.Exec(ctx, dropSchema); err != nil {
		return CompanyRecord{}, fmt.Errorf("drop schema: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM public.users WHERE company_id = $1", id); err != nil {
		return CompanyRecord{}, fmt.Errorf("delete company users: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE company_id = $1", CompaniesTable), id); err != nil {
		return CompanyRecord{}, fmt.Errorf("delete company: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return CompanyRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func scanCompany(row pgx.Row) (CompanyRecord, error) {
	var rec CompanyRecord
	if err := row.Scan(&rec.CompanyID, &rec.CompanyName, &rec.CompanyCode, &rec.DatabaseName,
		&rec.SubscriptionExpiresAt, &rec.IsActive, &rec.CreatedAt); err != nil {
		return CompanyRecord{}, err
	}
	return rec, nil
}
