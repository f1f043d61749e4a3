package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TicketsTable       = "public.tickets"
	TicketRepliesTable = "public.ticket_replies"
)

// ErrTicketNotFound indicates a missing (or soft-deleted) ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRecord represents a support ticket row.
type TicketRecord struct {
	ID          int64      `db:"id"`
	Subject     string     `db:"subject"`
	Description *string    `db:"description"`
	Status      int        `db:"status"`
	Priority    int        `db:"priority"`
	Metadata    []byte     `db:"metadata"`
	IsDeleted   bool       `db:"is_deleted"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// TicketReply represents one reply in a ticket thread.
type TicketReply struct {
	ID         int64     `db:"id"`
	TicketID   int64     `db:"ticket_id"`
	Message    string    `db:"message"`
	AuthorType string    `db:"author_type"`
	AuthorName *string   `db:"author_name"`
	AuthorID   *string   `db:"author_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// TicketListSpec is the allow-list for the tickets listing endpoint.
var TicketListSpec = ListSpec{
	FilterColumns: map[string]string{
		"status":     "status",
		"priority":   "priority",
		"is_deleted": "is_deleted",
	},
	SearchColumns: []string{"subject"},
	SortColumns: map[string]string{
		"id":         "id",
		"created_at": "created_at",
		"updated_at": "updated_at",
		"status":     "status",
		"priority":   "priority",
		"subject":    "subject",
	},
	DefaultSort:    "created_at",
	DefaultSortKey: "created_at",
	DefaultOrder:   SortDesc,
}

const ticketColumns = "id, subject, description, status, priority, metadata, is_deleted, created_at, updated_at"

// TicketStore reads the ticket tables. Tickets are a read model here; writes
// happen in the customer-facing system.
type TicketStore struct {
	pool *pgxpool.Pool
}

func NewTicketStore(ctx context.Context, pool *pgxpool.Pool) (*TicketStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TicketStore{pool: pool}, nil
}

// List returns tickets matching the list query plus the total count.
func (s *TicketStore) List(ctx context.Context, q ListQuery) ([]TicketRecord, int, error) {
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", TicketsTable, q.Where)
	if err := s.pool.QueryRow(ctx, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", ticketColumns, TicketsTable, q.Where, q.OrderBy, q.Paging)
	rows, err := s.pool.Query(ctx, query, q.AllArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	records := make([]TicketRecord, 0)
	for rows.Next() {
		rec, scanErr := scanTicket(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan ticket: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tickets: %w", err)
	}

	return records, total, nil
}

// Get returns one live ticket with its replies ordered oldest first.
func (s *TicketStore) Get(ctx context.Context, id int64) (TicketRecord, []TicketReply, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1 AND is_deleted = FALSE LIMIT 1", ticketColumns, TicketsTable), id)

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TicketRecord{}, nil, ErrTicketNotFound
		}
		return TicketRecord{}, nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT id, ticket_id, message, author_type, author_name, author_id, created_at, updated_at
        FROM %s
        WHERE ticket_id = $1 AND is_deleted = FALSE
        ORDER BY created_at ASC
    `, TicketRepliesTable), id)
	if err != nil {
		return TicketRecord{}, nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	replies := make([]TicketReply, 0)
	for rows.Next() {
		var reply TicketReply
		if err := rows.Scan(&reply.ID, &reply.TicketID, &reply.Message, &reply.AuthorType,
			&reply.AuthorName, &reply.AuthorID, &reply.CreatedAt, &reply.UpdatedAt); err != nil {
			return TicketRecord{}, nil, fmt.Errorf("scan reply: %w", err)
		}
		replies = append(replies, reply)
	}
	if err = rows.Err(); err != nil {
		return TicketRecord{}, nil, fmt.Errorf("iterate replies: %w", err)
	}

	return ticket, replies, nil
}

func scanTicket(row pgx.Row) (TicketRecord, error) {
	var rec TicketRecord
	if err := row.Scan(&rec.ID, &rec.Subject, &rec.Description, &rec.Status, &rec.Priority,
		&rec.Metadata, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return TicketRecord{}, err
	}
	return rec, nil
}
