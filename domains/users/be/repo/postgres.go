package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/solusisistem/internal-admin/domains/users/be/service"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Postgres implements service.Repository on top of the platform user store.
type Postgres struct {
	store *persistence.UserStore
}

func NewPostgres(store *persistence.UserStore) *Postgres {
	if store == nil {
		panic("user store is required")
	}
	return &Postgres{store: store}
}

func (r *Postgres) Create(ctx context.Context, companyID uuid.UUID, input service.CreateInput, passwordHash string) (service.CreatedUser, error) {
	created, err := r.store.CreateTenantUser(ctx, persistence.CreateTenantUserParams{
		CompanyID:    companyID,
		Fullname:     input.Fullname,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		RoleID:       input.RoleID,
	})
	if err != nil {
		return service.CreatedUser{}, mapErr(err)
	}
	return service.CreatedUser{UserUUID: created.UserUUID, UserID: created.UserID}, nil
}

func (r *Postgres) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]service.CompanyUser, error) {
	records, err := r.store.ListCompanyUsers(ctx, companyID)
	if err != nil {
		return nil, mapErr(err)
	}

	users := make([]service.CompanyUser, 0, len(records))
	for _, rec := range records {
		users = append(users, service.CompanyUser{
			UserUUID:        rec.UserUUID,
			UserID:          rec.UserID,
			UserExternalID:  rec.UserExternalID,
			Fullname:        rec.Fullname,
			Username:        rec.Username,
			Email:           rec.Email,
			Avatar:          rec.Avatar,
			CompanyID:       rec.CompanyID,
			CompanyName:     rec.CompanyName,
			IsActive:        rec.IsActive,
			IsEmailVerified: rec.IsEmailVerified,
			CreatedAt:       rec.CreatedAt,
		})
	}
	return users, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUserConflict):
		return service.ErrConflict
	case errors.Is(err, persistence.ErrCompanyNotFound):
		return service.ErrCompanyNotFound
	default:
		return err
	}
}
