package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/solusisistem/internal-admin/platform/go/audit"
)

// stubRepo captures the provisioning call and returns canned results.
type stubRepo struct {
	mu         sync.Mutex
	created    []CreateInput
	lastHash   string
	createErr  error
	listResult []CompanyUser
}

func (r *stubRepo) Create(ctx context.Context, companyID uuid.UUID, input CreateInput, passwordHash string) (CreatedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return CreatedUser{}, r.createErr
	}
	r.created = append(r.created, input)
	r.lastHash = passwordHash
	return CreatedUser{UserUUID: uuid.New(), UserID: 1}, nil
}

func (r *stubRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]CompanyUser, error) {
	return r.listResult, nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAuditor) Record(ctx context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func validInput() CreateInput {
	return CreateInput{
		Fullname: "Ada Admin",
		Username: "ada",
		Email:    "Ada@Example.COM",
		Password: "s3cret-pass",
		RoleID:   2,
	}
}

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	svc := New(repo, &recordingAuditor{})

	_, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, uuid.New(), validInput())
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	require.Equal(t, "ada@example.com", repo.created[0].Email)

	// the raw password never reaches the repository
	require.NotEqual(t, "s3cret-pass", repo.lastHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastHash), []byte("s3cret-pass")))
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing fullname", func(in *CreateInput) { in.Fullname = " " }},
		{"missing username", func(in *CreateInput) { in.Username = "" }},
		{"bad email", func(in *CreateInput) { in.Email = "not-an-email" }},
		{"short password", func(in *CreateInput) { in.Password = "short" }},
		{"missing role", func(in *CreateInput) { in.RoleID = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubRepo{}
			svc := New(repo, &recordingAuditor{})

			input := validInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), ActionContext{}, uuid.New(), input)
			require.ErrorIs(t, err, ErrValidation)
			require.Empty(t, repo.created)
		})
	}
}

func TestCreateConflictRecordsFailure(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{createErr: ErrConflict}
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	_, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, uuid.New(), validInput())
	require.ErrorIs(t, err, ErrConflict)

	require.Len(t, auditor.entries, 1)
	require.Equal(t, "USER.CREATE", auditor.entries[0].Action)
	require.Equal(t, audit.StatusFailure, auditor.entries[0].Status)
}

func TestCreateSuccessRecordsRole(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	companyID := uuid.New()
	_, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, companyID, validInput())
	require.NoError(t, err)

	require.Len(t, auditor.entries, 1)
	require.Equal(t, audit.StatusSuccess, auditor.entries[0].Status)
	require.Equal(t, companyID.String(), auditor.entries[0].Metadata["companyId"])
	require.Equal(t, 2, auditor.entries[0].Metadata["roleId"])
}
