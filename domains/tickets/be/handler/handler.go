package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/domains/tickets/be/service"
	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Handler exposes the support ticket read endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tickets service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Mount registers the ticket routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/tickets", h.list)
	r.Get("/api/tickets/{id}", h.get)
}

type ticketDTO struct {
	ID          int64           `json:"id"`
	Subject     string          `json:"subject"`
	Description *string         `json:"description"`
	Status      int             `json:"status"`
	Priority    int             `json:"priority"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	IsDeleted   bool            `json:"isDeleted"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type replyDTO struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticketId"`
	Message    string    `json:"message"`
	AuthorType string    `json:"authorType"`
	AuthorName *string   `json:"authorName"`
	AuthorID   *string   `json:"authorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toDTO(t service.Ticket) ticketDTO {
	return ticketDTO{
		ID:          t.ID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Metadata:    t.Metadata,
		IsDeleted:   t.IsDeleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), persistence.DefaultPage)
	if err != nil {
		httpapi.WriteValidation(w, "page must be a number")
		return
	}
	limit, err := intParam(q.Get("limit"), persistence.DefaultLimit)
	if err != nil {
		httpapi.WriteValidation(w, "limit must be a number")
		return
	}
	opts := service.ListOptions{
		Search: q.Get("q"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
		Page:   page,
		Limit:  limit,
	}

	if raw := q.Get("status"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpapi.WriteValidation(w, "status must be an integer")
			return
		}
		opts.Status = &v
	}
	if raw := q.Get("priority"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpapi.WriteValidation(w, "priority must be an integer")
			return
		}
		opts.Priority = &v
	}
	if raw := q.Get("is_deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpapi.WriteValidation(w, "is_deleted must be a boolean")
			return
		}
		opts.IsDeleted = &v
	} else {
		notDeleted := false
		opts.IsDeleted = &notDeleted
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]ticketDTO, 0, len(result.Tickets))
	for _, t := range result.Tickets {
		data = append(data, toDTO(t))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": map[string]any{
			"page":       result.Page,
			"limit":      result.Limit,
			"total":      result.TotalItems,
			"totalPages": result.TotalPages,
			"sortBy":     result.SortBy,
			"order":      result.Order,
		},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpapi.WriteValidation(w, "id must be an integer")
		return
	}

	ticket, replies, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	replyData := make([]replyDTO, 0, len(replies))
	for _, rep := range replies {
		replyData = append(replyData, replyDTO{
			ID:         rep.ID,
			TicketID:   rep.TicketID,
			Message:    rep.Message,
			AuthorType: rep.AuthorType,
			AuthorName: rep.AuthorName,
			AuthorID:   rep.AuthorID,
			CreatedAt:  rep.CreatedAt,
		})
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"data":    toDTO(ticket),
		"replies": replyData,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, persistence.ErrInvalidPagination):
		httpapi.WriteValidation(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		httpapi.WriteNotFound(w, "ticket not found")
	case errors.Is(err, persistence.ErrUnavailable):
		httpapi.WriteUnavailable(w)
	default:
		logging.FromRequest(r, h.logger).Error("tickets request failed", zap.Error(err))
		httpapi.WriteInternal(w)
	}
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
