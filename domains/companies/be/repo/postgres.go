package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/solusisistem/internal-admin/domains/companies/be/service"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Postgres implements service.Repository on top of the platform company store.
type Postgres struct {
	store *persistence.CompanyStore
}

func NewPostgres(store *persistence.CompanyStore) *Postgres {
	if store == nil {
		panic("company store is required")
	}
	return &Postgres{store: store}
}

func (r *Postgres) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	query, err := persistence.BuildListQuery(persistence.CompanyListSpec, persistence.ListRequest{
		Search: opts.Search,
		SortBy: opts.SortBy,
		Order:  opts.Order,
		Page:   opts.Page,
		Limit:  opts.Limit,
	})
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

	companies := make([]service.Company, 0, len(records))
	for _, rec := range records {
		companies = append(companies, toDomain(rec))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	return service.ListResult{
		Companies:  companies,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalItems: total,
		TotalPages: totalPages,
		SortBy:     query.SortBy,
		Order:      string(query.Order),
	}, nil
}

func (r *Postgres) Get(ctx context.Context, id uuid.UUID) (service.Company, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return service.Company{}, mapErr(err)
	}
	return toDomain(rec), nil
}

func (r *Postgres) Create(ctx context.Context, c service.Company) (service.Company, error) {
	rec, err := r.store.Create(ctx, persistence.CompanyRecord{
		CompanyID:             c.ID,
		CompanyName:           c.Name,
		CompanyCode:           c.Code,
		DatabaseName:          c.DatabaseName,
		SubscriptionExpiresAt: c.SubscriptionExpiresAt,
		IsActive:              c.IsActive,
	})
	if err != nil {
		return service.Company{}, mapErr(err)
	}
	return toDomain(rec), nil
}

func (r *Postgres) Seed(ctx context.Context, schemaName string) error {
	return r.store.Seed(ctx, schemaName)
}

func (r *Postgres) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Company, error) {
	rec, err := r.store.Update(ctx, id, persistence.UpdateCompanyParams{
		CompanyName:           input.Name,
		CompanyCode:           input.Code,
		DatabaseName:          input.DatabaseName,
		SubscriptionExpiresAt: input.ExpiresAt,
		IsActive:              input.IsActive,
	})
	if err != nil {
		return service.Company{}, mapErr(err)
	}
	return toDomain(rec), nil
}

func (r *Postgres) Delete(ctx context.Context, id uuid.UUID) (service.Company, error) {
	rec, err := r.store.Delete(ctx, id)
	if err != nil {
		return service.Company{}, mapErr(err)
	}
	return toDomain(rec), nil
}

func toDomain(rec persistence.CompanyRecord) service.Company {
	return service.Company{
		ID:                    rec.CompanyID,
		Name:                  rec.CompanyName,
		Code:                  rec.CompanyCode,
		DatabaseName:          rec.DatabaseName,
		SubscriptionExpiresAt: rec.SubscriptionExpiresAt,
		IsActive:              rec.IsActive,
		CreatedAt:             rec.CreatedAt,
	}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, persistence.ErrCompanyNotFound):
		return service.ErrNotFound
	case errors.Is(err, persistence.ErrCompanyConflict):
		return service.ErrConflict
	case errors.Is(err, persistence.ErrInvalidSchemaName):
		return fmt.Errorf("%w: %s", service.ErrValidation, err)
	default:
		return err
	}
}
