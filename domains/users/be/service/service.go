package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/solusisistem/internal-admin/platform/go/audit"
)

// Errors returned by the service layer.
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrConflict        = errors.New("username or email already exists")
	ErrValidation      = errors.New("invalid user input")
)

// CompanyUser is the joined view of one tenant user.
type CompanyUser struct {
	UserUUID        uuid.UUID
	UserID          int64
	UserExternalID  *string
	Fullname        string
	Username        string
	Email           string
	Avatar          *string
	CompanyID       uuid.UUID
	CompanyName     string
	IsActive        bool
	IsEmailVerified bool
	CreatedAt       time.Time
}

// CreateInput is the request to provision a user inside one company.
type CreateInput struct {
	Fullname string
	Username string
	Email    string
	Password string
	RoleID   int
}

// CreatedUser reports the identities assigned during provisioning.
type CreatedUser struct {
	UserUUID uuid.UUID
	UserID   int64
}

// ActionContext identifies who triggered the mutation.
type ActionContext struct {
	Actor string
	IP    string
}

// Repository abstracts persistence. Create must be atomic: the global user
// row, the tenant profile, and the role assignment commit together or not
// at all.
type Repository interface {
	Create(ctx context.Context, companyID uuid.UUID, input CreateInput, passwordHash string) (CreatedUser, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]CompanyUser, error)
}

// Auditor records administrative actions; satisfied by audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service provisions and lists tenant users.
type Service struct {
	repo    Repository
	auditor Auditor
}

func New(repo Repository, auditor Auditor) *Service {
	if repo == nil {
		panic("users repo is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	return &Service{repo: repo, auditor: auditor}
}

// Create validates the input, hashes the password, and provisions the user.
func (s *Service) Create(ctx context.Context, action ActionContext, companyID uuid.UUID, input CreateInput) (CreatedUser, error) {
	input.Fullname = strings.TrimSpace(input.Fullname)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if input.Fullname == "" {
		return CreatedUser{}, fmt.Errorf("%w: fullname is required", ErrValidation)
	}
	if input.Username == "" {
		return CreatedUser{}, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return CreatedUser{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(input.Password) < 8 {
		return CreatedUser{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if input.RoleID <= 0 {
		return CreatedUser{}, fmt.Errorf("%w: roleId is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return CreatedUser{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, companyID, input, string(hash))
	if err != nil {
		s.auditor.Record(ctx, audit.Entry{
			Actor:       action.Actor,
			Action:      "USER.CREATE",
			Target:      companyID.String(),
			Status:      audit.StatusFailure,
			Description: fmt.Sprintf("provisioning user %q failed", input.Username),
			IPAddress:   action.IP,
		})
		return CreatedUser{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:       action.Actor,
		Action:      "USER.CREATE",
		Target:      created.UserUUID.String(),
		Status:      audit.StatusSuccess,
		Description: fmt.Sprintf("user %q provisioned", input.Username),
		Metadata:    map[string]any{"companyId": companyID.String(), "roleId": input.RoleID},
		IPAddress:   action.IP,
	})

	return created, nil
}

// ListByCompany returns all users of one company, newest first.
func (s *Service) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]CompanyUser, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
