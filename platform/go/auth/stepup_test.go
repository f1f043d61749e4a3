package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()

	issuer, err := NewStepUpIssuer([]byte("test-signing-key"), "administrator", time.Minute)
	require.NoError(t, err)

	credential, err := issuer.Issue("ops@example.com")
	require.NoError(t, err)

	subject, err := issuer.Validate(credential)
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", subject)
}

func TestValidateRejectsExpiredCredential(t *testing.T) {
	t.Parallel()

	issuer, err := NewStepUpIssuer([]byte("test-signing-key"), "administrator", time.Minute)
	require.NoError(t, err)

	credential, err := issuer.Issue("ops@example.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Validate(credential)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	t.Parallel()

	a, err := NewStepUpIssuer([]byte("key-a"), "administrator", time.Minute)
	require.NoError(t, err)
	b, err := NewStepUpIssuer([]byte("key-b"), "administrator", time.Minute)
	require.NoError(t, err)

	credential, err := a.Issue("ops@example.com")
	require.NoError(t, err)

	_, err = b.Validate(credential)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	a, err := NewStepUpIssuer([]byte("shared-key"), "administrator", time.Minute)
	require.NoError(t, err)
	b, err := NewStepUpIssuer([]byte("shared-key"), "someone-else", time.Minute)
	require.NoError(t, err)

	credential, err := a.Issue("ops@example.com")
	require.NoError(t, err)

	_, err = b.Validate(credential)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestValidateRejectsGarbage(t *testing.T) {
	t.Parallel()

	issuer, err := NewStepUpIssuer([]byte("test-signing-key"), "administrator", time.Minute)
	require.NoError(t, err)

	_, err = issuer.Validate("not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestExtractBearer(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	_, ok := ExtractBearer(r)
	require.False(t, ok)

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, ok := ExtractBearer(r)
	require.True(t, ok)
	require.Equal(t, "abc.def.ghi", token)

	r.Header.Set("Authorization", "bearer lower.case")
	token, ok = ExtractBearer(r)
	require.True(t, ok)
	require.Equal(t, "lower.case", token)

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, ok = ExtractBearer(r)
	require.False(t, ok)
}

func TestMiddlewareResolvesVerifiedActor(t *testing.T) {
	t.Parallel()

	issuer, err := NewStepUpIssuer([]byte("test-signing-key"), "administrator", time.Minute)
	require.NoError(t, err)

	credential, err := issuer.Issue("ops@example.com")
	require.NoError(t, err)

	var seen string
	var present bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, present = VerifiedActor(r.Context())
	})

	r := httptest.NewRequest("DELETE", "/api/companies/1", nil)
	r.Header.Set("Authorization", "Bearer "+credential)
	issuer.Middleware()(next).ServeHTTP(httptest.NewRecorder(), r)
	require.True(t, present)
	require.Equal(t, "ops@example.com", seen)

	r = httptest.NewRequest("DELETE", "/api/companies/1", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	issuer.Middleware()(next).ServeHTTP(httptest.NewRecorder(), r)
	require.False(t, present)
}
