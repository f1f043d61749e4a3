package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// TrailReader is satisfied by persistence.AuditStore.
type TrailReader interface {
	ListRecent(ctx context.Context, limit, offset int) ([]persistence.AuditRecord, error)
}

// Handler exposes the recent administrative activity feed.
type Handler struct {
	trail  TrailReader
	logger *zap.Logger
}

func New(trail TrailReader, logger *zap.Logger) *Handler {
	if trail == nil {
		panic("trail reader is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{trail: trail, logger: logger}
}

// Mount registers the activities route on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/activities", h.list)
}

type activityDTO struct {
	ID          int64           `json:"id"`
	Actor       string          `json:"actor"`
	Action      string          `json:"action"`
	Target      string          `json:"target"`
	Status      string          `json:"status"`
	Description *string         `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	IPAddress   *string         `json:"ipAddress"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 20)
	if err != nil {
		httpapi.WriteValidation(w, "limit must be a number")
		return
	}
	page, err := intParam(q.Get("page"), persistence.DefaultPage)
	if err != nil {
		httpapi.WriteValidation(w, "page must be a number")
		return
	}
	if page < 1 || limit < 1 || limit > persistence.MaxLimit {
		httpapi.WriteValidation(w, "page must be >= 1 and limit between 1 and 100")
		return
	}

	records, err := h.trail.ListRecent(r.Context(), limit, (page-1)*limit)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrInvalidPagination):
			httpapi.WriteValidation(w, err.Error())
		case errors.Is(err, persistence.ErrUnavailable):
			httpapi.WriteUnavailable(w)
		default:
			logging.FromRequest(r, h.logger).Error("activities request failed", zap.Error(err))
			httpapi.WriteInternal(w)
		}
		return
	}

	data := make([]activityDTO, 0, len(records))
	for _, rec := range records {
		data = append(data, activityDTO{
			ID:          rec.ID,
			Actor:       rec.Actor,
			Action:      rec.Action,
			Target:      rec.Target,
			Status:      rec.Status,
			Description: rec.Description,
			Metadata:    rec.Metadata,
			IPAddress:   rec.IPAddress,
			CreatedAt:   rec.CreatedAt,
		})
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": map[string]any{"page": page, "limit": limit},
	})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
