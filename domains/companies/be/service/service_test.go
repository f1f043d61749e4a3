package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/solusisistem/internal-admin/platform/go/audit"
)

// inMemoryRepo is a minimal in-memory impl of Repository for tests.
type inMemoryRepo struct {
	mu      sync.Mutex
	data    map[uuid.UUID]Company
	seedErr error
	seeded  []string
}

func newInMemoryRepo() *inMemoryRepo {
	return &inMemoryRepo{data: make(map[uuid.UUID]Company)}
}

func (r *inMemoryRepo) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	return ListResult{}, errors.New("not implemented")
}

func (r *inMemoryRepo) Get(ctx context.Context, id uuid.UUID) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (r *inMemoryRepo) Create(ctx context.Context, c Company) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.DatabaseName == c.DatabaseName {
			return Company{}, ErrConflict
		}
	}
	c.CreatedAt = time.Now().UTC()
	r.data[c.ID] = c
	return c, nil
}

func (r *inMemoryRepo) Seed(ctx context.Context, schemaName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seedErr != nil {
		return r.seedErr
	}
	r.seeded = append(r.seeded, schemaName)
	return nil
}

func (r *inMemoryRepo) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	r.data[id] = c
	return c, nil
}

func (r *inMemoryRepo) Delete(ctx context.Context, id uuid.UUID) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	delete(r.data, id)
	return c, nil
}

// recordingAuditor captures every entry for assertions.
type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAuditor) Record(ctx context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) byAction(action string) []audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []audit.Entry
	for _, e := range a.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func TestCreateDefaultsExpiryToOneYear(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	before := time.Now().UTC().AddDate(0, 0, 365).Add(-time.Minute)
	result, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, CreateInput{
		Name:         "Acme Foods",
		DatabaseName: "acme_foods",
	})
	require.NoError(t, err)
	after := time.Now().UTC().AddDate(0, 0, 365).Add(time.Minute)

	require.True(t, result.Seeded)
	require.True(t, result.Company.SubscriptionExpiresAt.After(before))
	require.True(t, result.Company.SubscriptionExpiresAt.Before(after))
	require.True(t, result.Company.IsActive)
	require.Equal(t, []string{"acme_foods"}, repo.seeded)
}

func TestCreateRequiresNameAndDatabase(t *testing.T) {
	t.Parallel()

	svc := New(newInMemoryRepo(), &recordingAuditor{})

	_, err := svc.Create(context.Background(), ActionContext{}, CreateInput{DatabaseName: "acme"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), ActionContext{}, CreateInput{Name: "Acme"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateSeedFailureIsPartialSuccess(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	repo.seedErr = errors.New("seed blew up")
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	result, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, CreateInput{
		Name:         "Acme Foods",
		DatabaseName: "acme_foods",
	})
	require.NoError(t, err)
	require.False(t, result.Seeded)

	// the registry row survives the failed population step
	_, err = repo.Get(context.Background(), result.Company.ID)
	require.NoError(t, err)

	seedEntries := auditor.byAction("COMPANY.SEED")
	require.Len(t, seedEntries, 1)
	require.Equal(t, audit.StatusFailure, seedEntries[0].Status)
}

func TestSeedRetriesPopulationAlone(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	repo.seedErr = errors.New("transient")
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	result, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, CreateInput{
		Name:         "Acme Foods",
		DatabaseName: "acme_foods",
	})
	require.NoError(t, err)
	require.False(t, result.Seeded)

	repo.mu.Lock()
	repo.seedErr = nil
	repo.mu.Unlock()

	require.NoError(t, svc.Seed(context.Background(), ActionContext{Actor: "ops"}, result.Company.ID))
	require.Equal(t, []string{"acme_foods"}, repo.seeded)
}

func TestCreateConflictIsAudited(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	_, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, CreateInput{
		Name:         "Acme Foods",
		DatabaseName: "acme_foods",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), ActionContext{Actor: "ops"}, CreateInput{
		Name:         "Acme Clone",
		DatabaseName: "acme_foods",
	})
	require.ErrorIs(t, err, ErrConflict)

	createEntries := auditor.byAction("COMPANY.CREATE")
	require.Len(t, createEntries, 2)
	require.Equal(t, audit.StatusFailure, createEntries[1].Status)
}

func TestUpdateRejectsEmptyFieldSet(t *testing.T) {
	t.Parallel()

	svc := New(newInMemoryRepo(), &recordingAuditor{})

	_, err := svc.Update(context.Background(), ActionContext{}, uuid.New(), UpdateInput{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteRequiresReason(t *testing.T) {
	t.Parallel()

	repo := newInMemoryRepo()
	auditor := &recordingAuditor{}
	svc := New(repo, auditor)

	result, err := svc.Create(context.Background(), ActionContext{Actor: "ops"}, CreateInput{
		Name:         "Acme Foods",
		DatabaseName: "acme_foods",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), ActionContext{Actor: "ops"}, result.Company.ID, "  ")
	require.ErrorIs(t, err, ErrValidation)

	err = svc.Delete(context.Background(), ActionContext{Actor: "ops"}, result.Company.ID, "subscription lapsed")
	require.NoError(t, err)

	deleteEntries := auditor.byAction("COMPANY.DELETE")
	require.Len(t, deleteEntries, 1)
	require.Equal(t, "subscription lapsed", deleteEntries[0].Metadata["reason"])
}
