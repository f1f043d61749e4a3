package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InquiriesTable holds inbound contact submissions.
const InquiriesTable = "public.contact_submissions"

// InquiryRecord represents one contact submission.
type InquiryRecord struct {
	ID          int64     `db:"id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	CompanyName *string   `db:"company_name"`
	PhoneNumber *string   `db:"phone_number"`
	Email       string    `db:"email"`
	Question    *string   `db:"question"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// InquiryListSpec is the allow-list for the inquiries listing endpoint.
// display_name sorts on both name columns.
var InquiryListSpec = ListSpec{
	FilterColumns: map[string]string{
		"email":   "email",
		"company": "company_name",
	},
	SearchColumns: []string{"first_name", "last_name", "email", "company_name", "question"},
	SortColumns: map[string]string{
		"submitted_at": "submitted_at",
		"id":           "id",
		"display_name": "first_name, last_name",
		"email":        "email",
		"company_name": "company_name",
	},
	DefaultSort:    "submitted_at",
	DefaultSortKey: "submitted_at",
	DefaultOrder:   SortDesc,
}

const inquiryColumns = "id, first_name, last_name, company_name, phone_number, email, question, submitted_at"

// InquiryStore reads contact submissions. Inquiries are a read model; inserts
// come from the public website.
type InquiryStore struct {
	pool *pgxpool.Pool
}

func NewInquiryStore(ctx context.Context, pool *pgxpool.Pool) (*InquiryStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &InquiryStore{pool: pool}, nil
}

// List returns inquiries matching the list query plus the total count.
func (s *InquiryStore) List(ctx context.Context, q ListQuery) ([]InquiryRecord, int, error) {
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", InquiriesTable, q.Where)
	if err := s.pool.QueryRow(ctx, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", inquiryColumns, InquiriesTable, q.Where, q.OrderBy, q.Paging)
	rows, err := s.pool.Query(ctx, query, q.AllArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	records := make([]InquiryRecord, 0)
	for rows.Next() {
		rec, scanErr := scanInquiry(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan inquiry: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate inquiries: %w", err)
	}

	return records, total, nil
}

// ListAll returns every submission ordered newest first, for export.
func (s *InquiryStore) ListAll(ctx context.Context) ([]InquiryRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY submitted_at DESC", inquiryColumns, InquiriesTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("export inquiries: %w", err)
	}
	defer rows.Close()

	records := make([]InquiryRecord, 0)
	for rows.Next() {
		rec, scanErr := scanInquiry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan inquiry: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiries: %w", err)
	}

	return records, nil
}

func scanInquiry(row pgx.Row) (InquiryRecord, error) {
	var rec InquiryRecord
	if err := row.Scan(&rec.ID, &rec.FirstName, &rec.LastName, &rec.CompanyName,
		&rec.PhoneNumber, &rec.Email, &rec.Question, &rec.SubmittedAt); err != nil {
		return InquiryRecord{}, err
	}
	return rec, nil
}
