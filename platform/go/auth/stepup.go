// Package auth issues and checks the short-lived credential handed out after
// a successful one-time-code verification. The credential layers on top of an
// externally-issued session; it is not a general identity token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential covers expired, malformed, or mis-signed tokens.
var ErrInvalidCredential = errors.New("invalid step-up credential")

// StepUpIssuer signs and validates HS256 step-up tokens.
type StepUpIssuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// NewStepUpIssuer constructs an issuer. ttl bounds the credential lifetime.
func NewStepUpIssuer(signingKey []byte, issuer string, ttl time.Duration) (*StepUpIssuer, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("signing key is required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StepUpIssuer{signingKey: signingKey, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed credential for the given subject.
func (i *StepUpIssuer) Issue(subject string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign step-up credential: %w", err)
	}
	return signed, nil
}

// Validate parses and checks a credential, returning its subject.
func (i *StepUpIssuer) Validate(credential string) (string, error) {
	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.signingKey, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !token.Valid {
		return "", ErrInvalidCredential
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}

// ExtractBearer pulls a bearer token from the Authorization header.
func ExtractBearer(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(authHeader[len(prefix):]), true
}

type actorKey struct{}

// WithVerifiedActor stores a credential-backed actor on the context.
func WithVerifiedActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// VerifiedActor returns the actor proven by a step-up credential, if any.
func VerifiedActor(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}

// Middleware resolves the bearer step-up credential, when present and valid,
// into a verified actor on the request context. It never rejects the request;
// handlers attribute audit entries to the verified actor when one exists.
func (i *StepUpIssuer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if credential, ok := ExtractBearer(r); ok {
				if subject, err := i.Validate(credential); err == nil {
					r = r.WithContext(WithVerifiedActor(r.Context(), subject))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
