// Package audit records administrative actions on a best-effort basis. A
// failed write must never fail the operation it observes, so Record has no
// error return: failures are logged and swallowed.
package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/platform/go/auth"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Entry statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// Entry describes one administrative action. Action is namespaced, e.g.
// "COMPANY.CREATE". Metadata is opaque to the recorder.
type Entry struct {
	Actor       string
	Action      string
	Target      string
	Status      string
	Description string
	Metadata    map[string]any
	IPAddress   string
}

// Inserter is the append-only sink for audit entries.
type Inserter interface {
	Insert(ctx context.Context, rec persistence.AuditRecord) error
}

// Recorder writes entries to the audit store.
type Recorder struct {
	store  Inserter
	logger *zap.Logger
}

// NewRecorder constructs a Recorder with required dependencies.
func NewRecorder(store Inserter, logger *zap.Logger) *Recorder {
	if store == nil {
		panic("audit store is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Recorder{store: store, logger: logger}
}

// Record synchronously attempts one insert. On any failure it logs and
// returns; callers cannot observe the outcome.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	rec := persistence.AuditRecord{
		Actor:  e.Actor,
		Action: e.Action,
		Target: e.Target,
		Status: e.Status,
	}
	if e.Description != "" {
		rec.Description = &e.Description
	}
	if e.IPAddress != "" {
		rec.IPAddress = &e.IPAddress
	}
	if len(e.Metadata) > 0 {
		payload, err := json.Marshal(e.Metadata)
		if err != nil {
			r.logger.Warn("audit metadata not serializable", zap.String("action", e.Action), zap.Error(err))
		} else {
			rec.Metadata = payload
		}
	}

	if err := r.store.Insert(ctx, rec); err != nil {
		r.logger.Warn("audit log write failed",
			zap.String("action", e.Action),
			zap.String("target", e.Target),
			zap.Error(err),
		)
	}
}

// RequestIdentity derives the acting administrator and source address for an
// Entry. A subject proven by a step-up credential wins over the advisory
// X-Admin-User header. RealIP middleware rewrites RemoteAddr upstream.
func RequestIdentity(r *http.Request) (actor, ip string) {
	if verified, ok := auth.VerifiedActor(r.Context()); ok {
		return verified, r.RemoteAddr
	}
	actor = strings.TrimSpace(r.Header.Get("X-Admin-User"))
	if actor == "" {
		actor = "admin"
	}
	return actor, r.RemoteAddr
}
