package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogsTable is append-only; no update or delete path exists.
const AuditLogsTable = "internal_admin.audit_logs"

// AuditRecord is one administrative action trail entry.
type AuditRecord struct {
	ID          int64           `db:"id"`
	Actor       string          `db:"actor"`
	Action      string          `db:"action"`
	Target      string          `db:"target"`
	Status      string          `db:"status"`
	Description *string         `db:"description"`
	Metadata    json.RawMessage `db:"metadata"`
	IPAddress   *string         `db:"ip_address"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AuditStore appends to and reads the audit trail.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(ctx context.Context, pool *pgxpool.Pool) (*AuditStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AuditStore{pool: pool}, nil
}

// Insert appends one entry. Metadata is stored opaquely as jsonb.
func (s *AuditStore) Insert(ctx context.Context, rec AuditRecord) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (actor, action, target, status, description, metadata, ip_address)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, AuditLogsTable),
		rec.Actor, rec.Action, rec.Target, rec.Status, rec.Description, rec.Metadata, rec.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries with plain limit/offset paging.
func (s *AuditStore) ListRecent(ctx context.Context, limit, offset int) ([]AuditRecord, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPagination, MaxLimit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidPagination)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT id, actor, action, target, status, description, metadata, ip_address, created_at
        FROM %s
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `, AuditLogsTable), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	records := make([]AuditRecord, 0)
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Actor, &rec.Action, &rec.Target, &rec.Status,
			&rec.Description, &rec.Metadata, &rec.IPAddress, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}

	return records, nil
}
