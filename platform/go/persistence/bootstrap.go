package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/solusisistem/internal-admin/database"
)

// Bootstrap applies the embedded platform DDL: the tenant registry and
// global user tables, the support tables with their notify trigger, and the
// internal_admin audit schema. SQL is embedded at build time so binaries stay
// self-contained. Idempotent; intended for first-run setup and tests.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap: pool is required")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, ddl := range []string{sqlassets.PlatformSQL, sqlassets.SupportSQL, sqlassets.AuditLogsSQL} {
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}
