package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates a missing or soft-deleted ticket.
var ErrNotFound = errors.New("ticket not found")

// ErrValidation indicates rejected listing parameters.
var ErrValidation = errors.New("invalid ticket query")

// Ticket is the domain read model for a support ticket.
type Ticket struct {
	ID          int64
	Subject     string
	Description *string
	Status      int
	Priority    int
	Metadata    json.RawMessage
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reply is one message in a ticket thread.
type Reply struct {
	ID         int64
	TicketID   int64
	Message    string
	AuthorType string
	AuthorName *string
	AuthorID   *string
	CreatedAt  time.Time
}

// ListOptions captures the supported ticket filters. Nil filters are omitted.
type ListOptions struct {
	Status    *int
	Priority  *int
	IsDeleted *bool
	Search    string
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

// ListResult wraps paginated tickets.
type ListResult struct {
	Tickets    []Ticket
	Page       int
	Limit      int
	TotalItems int
	TotalPages int
	SortBy     string
	Order      string
}

// Repository abstracts persistence. Tickets are read-only in this service;
// writes happen in the customer-facing system.
type Repository interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id int64) (Ticket, []Reply, error)
}

// Service reads support tickets.
type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	if repo == nil {
		panic("tickets repo is required")
	}
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	return s.repo.List(ctx, opts)
}

func (s *Service) Get(ctx context.Context, id int64) (Ticket, []Reply, error) {
	return s.repo.Get(ctx, id)
}
