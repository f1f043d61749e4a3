package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/domains/companies/be/service"
	"github.com/solusisistem/internal-admin/platform/go/audit"
	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Handler exposes the company lifecycle endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("companies service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Mount registers the company routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/companies", h.list)
	r.Post("/api/companies", h.create)
	r.Get("/api/companies/{id}", h.get)
	r.Patch("/api/companies/{id}", h.update)
	r.Delete("/api/companies/{id}", h.remove)
}

type companyDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      *string   `json:"code"`
	Database  string    `json:"database"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDTO(c service.Company) companyDTO {
	return companyDTO{
		ID:        c.ID.String(),
		Name:      c.Name,
		Code:      c.Code,
		Database:  c.DatabaseName,
		ExpiresAt: c.SubscriptionExpiresAt,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

type listMeta struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
	SortBy     string `json:"sortBy"`
	Order      string `json:"order"`
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
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]companyDTO, 0, len(result.Companies))
	for _, c := range result.Companies {
		data = append(data, toDTO(c))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": listMeta{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.TotalItems,
			TotalPages: result.TotalPages,
			SortBy:     result.SortBy,
			Order:      result.Order,
		},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteValidation(w, "id must be a UUID")
		return
	}

	company, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"data": toDTO(company)})
}

type createRequest struct {
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Database  string     `json:"database"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteValidation(w, "request body must be valid JSON")
		return
	}

	actor, ip := audit.RequestIdentity(r)
	result, err := h.svc.Create(r.Context(), service.ActionContext{Actor: actor, IP: ip}, service.CreateInput{
		Name:         req.Name,
		Code:         req.Code,
		DatabaseName: req.Database,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"data":   toDTO(result.Company),
		"seeded": result.Seeded,
	})
}

type updateRequest struct {
	Name      *string    `json:"name"`
	Code      *string    `json:"code"`
	Database  *string    `json:"database"`
	ExpiresAt *time.Time `json:"expiresAt"`
	IsActive  *bool      `json:"isActive"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteValidation(w, "id must be a UUID")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteValidation(w, "request body must be valid JSON")
		return
	}

	actor, ip := audit.RequestIdentity(r)
	updated, err := h.svc.Update(r.Context(), service.ActionContext{Actor: actor, IP: ip}, id, service.UpdateInput{
		Name:         req.Name,
		Code:         req.Code,
		DatabaseName: req.Database,
		ExpiresAt:    req.ExpiresAt,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"data": toDTO(updated)})
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteValidation(w, "id must be a UUID")
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteValidation(w, "request body must be valid JSON")
		return
	}

	actor, ip := audit.RequestIdentity(r)
	if err := h.svc.Delete(r.Context(), service.ActionContext{Actor: actor, IP: ip}, id, req.Reason); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, persistence.ErrInvalidPagination):
		httpapi.WriteValidation(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		httpapi.WriteNotFound(w, "company not found")
	case errors.Is(err, service.ErrConflict):
		httpapi.WriteConflict(w, "database name already in use")
	case errors.Is(err, persistence.ErrUnavailable):
		httpapi.WriteUnavailable(w)
	default:
		logging.FromRequest(r, h.logger).Error("companies request failed", zap.Error(err))
		httpapi.WriteInternal(w)
	}
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
