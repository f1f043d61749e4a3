package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/domains/inquiries/be/service"
	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/persistence"
)

// Handler exposes the inquiry read and export endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("inquiries service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Mount registers the inquiry routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/inquiries", h.list)
	r.Get("/api/inquiries/export", h.export)
}

type inquiryDTO struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	CompanyName *string   `json:"companyName"`
	PhoneNumber *string   `json:"phoneNumber"`
	Email       string    `json:"email"`
	Question    *string   `json:"question"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func toDTO(i service.Inquiry) inquiryDTO {
	return inquiryDTO{
		ID:          i.ID,
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		CompanyName: i.CompanyName,
		PhoneNumber: i.PhoneNumber,
		Email:       i.Email,
		Question:    i.Question,
		SubmittedAt: i.SubmittedAt,
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
		Email:   q.Get("email"),
		Company: q.Get("company"),
		Search:  q.Get("q"),
		SortBy:  q.Get("sortBy"),
		Order:   q.Get("order"),
		Page:    page,
		Limit:   limit,
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]inquiryDTO, 0, len(result.Inquiries))
	for _, i := range result.Inquiries {
		data = append(data, toDTO(i))
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

// export streams every submission as CSV with attachment headers.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("inquiries-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "first_name", "last_name", "company_name", "phone_number", "email", "question", "submitted_at"})
	for _, i := range inquiries {
		_ = cw.Write([]string{
			strconv.FormatInt(i.ID, 10),
			i.FirstName,
			i.LastName,
			deref(i.CompanyName),
			deref(i.PhoneNumber),
			i.Email,
			deref(i.Question),
			i.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.FromRequest(r, h.logger).Error("inquiries export failed", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, persistence.ErrInvalidPagination):
		httpapi.WriteValidation(w, err.Error())
	case errors.Is(err, persistence.ErrUnavailable):
		httpapi.WriteUnavailable(w)
	default:
		logging.FromRequest(r, h.logger).Error("inquiries request failed", zap.Error(err))
		httpapi.WriteInternal(w)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
