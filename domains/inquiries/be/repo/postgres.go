package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/solusisistem/internal-admin/domains/inquiries/be/service"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Postgres implements service.Repository on top of the platform inquiry store.
type Postgres struct {
	store *persistence.InquiryStore
}

func NewPostgres(store *persistence.InquiryStore) *Postgres {
	if store == nil {
		panic("inquiry store is required")
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
	if opts.Email != "" {
		req.Filters = append(req.Filters, persistence.Filter{Key: "email", Value: opts.Email})
	}
	if opts.Company != "" {
		req.Filters = append(req.Filters, persistence.Filter{Key: "company", Value: opts.Company})
	}

	query, err := persistence.BuildListQuery(persistence.InquiryListSpec, req)
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

	inquiries := make([]service.Inquiry, 0, len(records))
	for _, rec := range records {
		inquiries = append(inquiries, toDomain(rec))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	return service.ListResult{
		Inquiries:  inquiries,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalItems: total,
		TotalPages: totalPages,
		SortBy:     query.SortBy,
		Order:      string(query.Order),
	}, nil
}

func (r *Postgres) ListAll(ctx context.Context) ([]service.Inquiry, error) {
	records, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	inquiries := make([]service.Inquiry, 0, len(records))
	for _, rec := range records {
		inquiries = append(inquiries, toDomain(rec))
	}
	return inquiries, nil
}

func toDomain(rec persistence.InquiryRecord) service.Inquiry {
	return service.Inquiry{
		ID:          rec.ID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		CompanyName: rec.CompanyName,
		PhoneNumber: rec.PhoneNumber,
		Email:       rec.Email,
		Question:    rec.Question,
		SubmittedAt: rec.SubmittedAt,
	}
}
