package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardStats holds the operational counters shown on the admin landing page.
type DashboardStats struct {
	NewInquiries    int
	OpenTickets     int
	TicketsResolved int
	TotalTickets    int
}

// Ticket status values shared with the customer-facing system.
const (
	TicketStatusOpen     = 0
	TicketStatusResolved = 3
	TicketStatusClosed   = 4
)

// StatsStore aggregates counters over the support tables.
type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(ctx context.Context, pool *pgxpool.Pool) (*StatsStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &StatsStore{pool: pool}, nil
}

// DailyStats computes counters for the UTC day starting at dayStart. All time
// boundaries are bound parameters.
func (s *StatsStore) DailyStats(ctx context.Context, dayStart time.Time) (DashboardStats, error) {
	dayStart = dayStart.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var stats DashboardStats

	if err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE submitted_at >= $1 AND submitted_at < $2", InquiriesTable),
		dayStart, dayEnd,
	).Scan(&stats.NewInquiries); err != nil {
		return DashboardStats{}, fmt.Errorf("count new inquiries: %w", err)
	}

	if err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE status = $1 AND is_deleted = FALSE", TicketsTable),
		TicketStatusOpen,
	).Scan(&stats.OpenTickets); err != nil {
		return DashboardStats{}, fmt.Errorf("count open tickets: %w", err)
	}

	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT COUNT(*) FROM %s
        WHERE updated_at >= $1 AND updated_at < $2
          AND status IN ($3, $4)
          AND is_deleted = FALSE
    `, TicketsTable),
		dayStart, dayEnd, TicketStatusResolved, TicketStatusClosed,
	).Scan(&stats.TicketsResolved); err != nil {
		return DashboardStats{}, fmt.Errorf("count resolved tickets: %w", err)
	}

	if err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE is_deleted = FALSE", TicketsTable),
	).Scan(&stats.TotalTickets); err != nil {
		return DashboardStats{}, fmt.Errorf("count total tickets: %w", err)
	}

	return stats, nil
}
