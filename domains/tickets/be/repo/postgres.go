package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/solusisistem/internal-admin/domains/tickets/be/service"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Postgres implements service.Repository on top of the platform ticket store.
type Postgres struct {
	store *persistence.TicketStore
}

func NewPostgres(store *persistence.TicketStore) *Postgres {
	if store == nil {
		panic("ticket store is required")
	}
	return &Postgres{store: store}
}

func (r *Postgres) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	req := persistence.ListRequest{
		Search: opts.Search,
		SortBy: opts.SortBy,
		Order:  opts.Order,
		Page:   opts.Page,
		Limit:  opts.Limit,
	}
	if opts.Status != nil {
		req.Filters = append(req.Filters, persistence.Filter{Key: "status", Value: *opts.Status})
	}
	if opts.Priority != nil {
		req.Filters = append(req.Filters, persistence.Filter{Key: "priority", Value: *opts.Priority})
	}
	if opts.IsDeleted != nil {
		req.Filters = append(req.Filters, persistence.Filter{Key: "is_deleted", Value: *opts.IsDeleted})
	}

	query, err := persistence.BuildListQuery(persistence.TicketListSpec, req)
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidPagination) {
			return service.ListResult{}, fmt.Errorf("%w: %s", service.ErrValidation, err)
		}
		return service.ListResult{}, err
	}

	records, total, err := r.store.List(ctx, query)
	if err != nil {
		return service.ListResult{}, err
	}

	tickets := make([]service.Ticket, 0, len(records))
	for _, rec := range records {
		tickets = append(tickets, toDomain(rec))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	return service.ListResult{
		Tickets:    tickets,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalItems: total,
		TotalPages: totalPages,
		SortBy:     query.SortBy,
		Order:      string(query.Order),
	}, nil
}

func (r *Postgres) Get(ctx context.Context, id int64) (service.Ticket, []service.Reply, error) {
	rec, replies, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrTicketNotFound) {
			return service.Ticket{}, nil, service.ErrNotFound
		}
		return service.Ticket{}, nil, err
	}

	out := make([]service.Reply, 0, len(replies))
	for _, rep := range replies {
		out = append(out, service.Reply{
			ID:         rep.ID,
			TicketID:   rep.TicketID,
			Message:    rep.Message,
			AuthorType: rep.AuthorType,
			AuthorName: rep.AuthorName,
			AuthorID:   rep.AuthorID,
			CreatedAt:  rep.CreatedAt,
		})
	}
	return toDomain(rec), out, nil
}

func toDomain(rec persistence.TicketRecord) service.Ticket {
	return service.Ticket{
		ID:          rec.ID,
		Subject:     rec.Subject,
		Description: rec.Description,
		Status:      rec.Status,
		Priority:    rec.Priority,
		Metadata:    rec.Metadata,
		IsDeleted:   rec.IsDeleted,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
