package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solusisistem/internal-admin/platform/go/audit"
)

// Errors returned by the service layer.
var (
	ErrNotFound   = errors.New("company not found")
	ErrConflict   = errors.New("company database name already exists")
	ErrValidation = errors.New("invalid company input")
)

// Company is the domain model for one tenant registry entry.
type Company struct {
	ID                    uuid.UUID
	Name                  string
	Code                  *string
	DatabaseName          string
	SubscriptionExpiresAt time.Time
	IsActive              bool
	CreatedAt             time.Time
}

// CreateInput represents the request to create a tenant.
type CreateInput struct {
	Name         string
	Code         string
	DatabaseName string
	ExpiresAt    *time.Time
}

// UpdateInput represents mutable registry fields; nil fields are untouched.
type UpdateInput struct {
	Name         *string
	Code         *string
	DatabaseName *string
	ExpiresAt    *time.Time
	IsActive     *bool
}

// ListOptions captures filters and pagination for the companies listing.
type ListOptions struct {
	Search string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

// ListResult wraps paginated companies. SortBy and Order echo the applied
// sort, which may differ from the requested one when it was not allow-listed.
type ListResult struct {
	Companies  []Company
	Page       int
	Limit      int
	TotalItems int
	TotalPages int
	SortBy     string
	Order      string
}

// CreateResult reports the created tenant and whether the separate population
// step succeeded. Seeded=false is the partial-success state: the registry row
// and schema exist but baseline data is missing, and population can be
// retried on its own.
type CreateResult struct {
	Company Company
	Seeded  bool
}

// ActionContext identifies who triggered a mutation, for the audit trail.
type ActionContext struct {
	Actor string
	IP    string
}

// Repository abstracts persistence.
type Repository interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (Company, error)
	Create(ctx context.Context, c Company) (Company, error)
	Seed(ctx context.Context, schemaName string) error
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Company, error)
	Delete(ctx context.Context, id uuid.UUID) (Company, error)
}

// Auditor records administrative actions; satisfied by audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service provides tenant registry operations.
type Service struct {
	repo    Repository
	auditor Auditor
}

// New constructs a Service with required dependencies.
func New(repo Repository, auditor Auditor) *Service {
	if repo == nil {
		panic("companies repo is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	return &Service{repo: repo, auditor: auditor}
}

// List companies with optional free-text search.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	return s.repo.List(ctx, opts)
}

// Get returns a company by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Company, error) {
	return s.repo.Get(ctx, id)
}

// Create provisions the tenant schema and registry row, then runs the
// separate population step. A population failure is not rolled back; the
// result reports Seeded=false and the failure gets its own audit entry.
func (s *Service) Create(ctx context.Context, action ActionContext, input CreateInput) (CreateResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return CreateResult{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(input.DatabaseName) == "" {
		return CreateResult{}, fmt.Errorf("%w: database is required", ErrValidation)
	}

	expiresAt := time.Now().UTC().AddDate(0, 0, 365)
	if input.ExpiresAt != nil {
		expiresAt = input.ExpiresAt.UTC()
	}

	company := Company{
		ID:                    uuid.New(),
		Name:                  name,
		DatabaseName:          strings.TrimSpace(input.DatabaseName),
		SubscriptionExpiresAt: expiresAt,
		IsActive:              true,
	}
	if code := strings.TrimSpace(input.Code); code != "" {
		company.Code = &code
	}

	created, err := s.repo.Create(ctx, company)
	if err != nil {
		s.auditor.Record(ctx, audit.Entry{
			Actor:       action.Actor,
			Action:      "COMPANY.CREATE",
			Target:      company.DatabaseName,
			Status:      audit.StatusFailure,
			Description: "tenant creation failed",
			IPAddress:   action.IP,
		})
		return CreateResult{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:       action.Actor,
		Action:      "COMPANY.CREATE",
		Target:      created.ID.String(),
		Status:      audit.StatusSuccess,
		Description: fmt.Sprintf("company %q created with schema %q", created.Name, created.DatabaseName),
		Metadata:    map[string]any{"database": created.DatabaseName},
		IPAddress:   action.IP,
	})

	if err := s.repo.Seed(ctx, created.DatabaseName); err != nil {
		s.auditor.Record(ctx, audit.Entry{
			Actor:       action.Actor,
			Action:      "COMPANY.SEED",
			Target:      created.ID.String(),
			Status:      audit.StatusFailure,
			Description: "baseline data population failed; retry population separately",
			IPAddress:   action.IP,
		})
		return CreateResult{Company: created, Seeded: false}, nil
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:     action.Actor,
		Action:    "COMPANY.SEED",
		Target:    created.ID.String(),
		Status:    audit.StatusSuccess,
		IPAddress: action.IP,
	})

	return CreateResult{Company: created, Seeded: true}, nil
}

// Seed retries the population step alone.
func (s *Service) Seed(ctx context.Context, action ActionContext, id uuid.UUID) error {
	company, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	status := audit.StatusSuccess
	err = s.repo.Seed(ctx, company.DatabaseName)
	if err != nil {
		status = audit.StatusFailure
	}
	s.auditor.Record(ctx, audit.Entry{
		Actor:     action.Actor,
		Action:    "COMPANY.SEED",
		Target:    id.String(),
		Status:    status,
		IPAddress: action.IP,
	})
	return err
}

// Update modifies the supplied fields only. An empty field set is rejected
// before touching the database.
func (s *Service) Update(ctx context.Context, action ActionContext, id uuid.UUID, input UpdateInput) (Company, error) {
	if input.Name == nil && input.Code == nil && input.DatabaseName == nil &&
		input.ExpiresAt == nil && input.IsActive == nil {
		return Company{}, fmt.Errorf("%w: at least one field to update is required", ErrValidation)
	}

	updated, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return Company{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:     action.Actor,
		Action:    "COMPANY.UPDATE",
		Target:    id.String(),
		Status:    audit.StatusSuccess,
		IPAddress: action.IP,
	})

	return updated, nil
}

// Delete irreversibly drops the tenant schema and registry row. The
// justification is mandatory and recorded in the audit entry; it is not
// validated beyond non-emptiness.
func (s *Service) Delete(ctx context.Context, action ActionContext, id uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:       action.Actor,
		Action:      "COMPANY.DELETE",
		Target:      id.String(),
		Status:      audit.StatusSuccess,
		Description: fmt.Sprintf("company %q and schema %q dropped", deleted.Name, deleted.DatabaseName),
		Metadata:    map[string]any{"reason": reason, "database": deleted.DatabaseName},
		IPAddress:   action.IP,
	})

	return nil
}
