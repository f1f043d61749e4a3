package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/domains/users/be/service"
	"github.com/solusisistem/internal-admin/platform/go/audit"
	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Handler exposes the tenant user endpoints, nested under a company.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Mount registers the user routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/companies/{id}/users", h.list)
	r.Post("/api/companies/{id}/users", h.create)
}

type userDTO struct {
	UUID            string    `json:"uuid"`
	ID              int64     `json:"id"`
	ExternalID      *string   `json:"externalId"`
	Fullname        string    `json:"fullname"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Avatar          *string   `json:"avatar"`
	CompanyID       string    `json:"companyId"`
	CompanyName     string    `json:"companyName"`
	IsActive        bool      `json:"isActive"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteValidation(w, "id must be a UUID")
		return
	}

	users, err := h.svc.ListByCompany(r.Context(), companyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]userDTO, 0, len(users))
	for _, u := range users {
		data = append(data, userDTO{
			UUID:            u.UserUUID.String(),
			ID:              u.UserID,
			ExternalID:      u.UserExternalID,
			Fullname:        u.Fullname,
			Username:        u.Username,
			Email:           u.Email,
			Avatar:          u.Avatar,
			CompanyID:       u.CompanyID.String(),
			CompanyName:     u.CompanyName,
			IsActive:        u.IsActive,
			IsEmailVerified: u.IsEmailVerified,
			CreatedAt:       u.CreatedAt,
		})
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"data": data})
}

type createRequest struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        int    `json:"role"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteValidation(w, "id must be a UUID")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteValidation(w, "request body must be valid JSON")
		return
	}

	actor, ip := audit.RequestIdentity(r)
	created, err := h.svc.Create(r.Context(), service.ActionContext{Actor: actor, IP: ip}, companyID, service.CreateInput{
		Fullname: req.DisplayName,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.Role,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"uuid": created.UserUUID.String(),
			"id":   created.UserID,
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpapi.WriteValidation(w, err.Error())
	case errors.Is(err, service.ErrCompanyNotFound):
		httpapi.WriteNotFound(w, "company not found")
	case errors.Is(err, service.ErrConflict):
		httpapi.WriteConflict(w, "username or email already in use")
	case errors.Is(err, persistence.ErrUnavailable):
		httpapi.WriteUnavailable(w)
	default:
		logging.FromRequest(r, h.logger).Error("users request failed", zap.Error(err))
		httpapi.WriteInternal(w)
	}
}
