package service

import (
	"context"
	"errors"
	"time"
)

// ErrValidation indicates rejected listing parameters.
var ErrValidation = errors.New("invalid inquiry query")

// Inquiry is one contact form submission from the public website.
type Inquiry struct {
	ID          int64
	FirstName   string
	LastName    string
	CompanyName *string
	PhoneNumber *string
	Email       string
	Question    *string
	SubmittedAt time.Time
}

// ListOptions captures the supported inquiry filters.
type ListOptions struct {
	Email   string
	Company string
	Search  string
	SortBy  string
	Order   string
	Page    int
	Limit   int
}

// ListResult wraps paginated inquiries.
type ListResult struct {
	Inquiries  []Inquiry
	Page       int
	Limit      int
	TotalItems int
	TotalPages int
	SortBy     string
	Order      string
}

// Repository abstracts persistence. Inquiries are a read model; inserts come
// from the public website.
type Repository interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	ListAll(ctx context.Context) ([]Inquiry, error)
}

// Service reads contact submissions.
type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	if repo == nil {
		panic("inquiries repo is required")
	}
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	return s.repo.List(ctx, opts)
}

// ListAll returns every submission, newest first, for export.
func (s *Service) ListAll(ctx context.Context) ([]Inquiry, error) {
	return s.repo.ListAll(ctx)
}
