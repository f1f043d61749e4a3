package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// StatsReader is satisfied by persistence.StatsStore.
type StatsReader interface {
	DailyStats(ctx context.Context, dayStart time.Time) (persistence.DashboardStats, error)
}

// Handler exposes the dashboard statistics endpoint.
type Handler struct {
	stats  StatsReader
	logger *zap.Logger
	now    func() time.Time
}

func New(stats StatsReader, logger *zap.Logger) *Handler {
	if stats == nil {
		panic("stats reader is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{stats: stats, logger: logger, now: time.Now}
}

// Mount registers the dashboard route on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/dashboard/stats", h.daily)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	dayStart := h.now().UTC().Truncate(24 * time.Hour)

	stats, err := h.stats.DailyStats(r.Context(), dayStart)
	if err != nil {
		if errors.Is(err, persistence.ErrUnavailable) {
			httpapi.WriteUnavailable(w)
			return
		}
		logging.FromRequest(r, h.logger).Error("dashboard stats failed", zap.Error(err))
		httpapi.WriteInternal(w)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"newInquiries":    stats.NewInquiries,
			"openTickets":     stats.OpenTickets,
			"ticketsResolved": stats.TicketsResolved,
			"totalTickets":    stats.TotalTickets,
		},
	})
}
