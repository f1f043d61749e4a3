package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solusisistem/internal-admin/platform/go/audit"
	"github.com/solusisistem/internal-admin/platform/go/auth"
	"github.com/solusisistem/internal-admin/platform/go/httpapi"
	"github.com/solusisistem/internal-admin/platform/go/logging"
	"github.com/solusisistem/internal-admin/platform/go/totp"
)

// Handler exposes the step-up verification endpoints. A valid one-time code
// is exchanged for a short-lived credential covering sensitive operations.
type Handler struct {
	verifier *totp.Verifier
	issuer   *auth.StepUpIssuer
	auditor  Auditor

	logger *zap.Logger

	totpIssuer  string
	accountName string
}

// Auditor records verification attempts; satisfied by audit.Recorder.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

func New(verifier *totp.Verifier, issuer *auth.StepUpIssuer, auditor Auditor, logger *zap.Logger, totpIssuer, accountName string) *Handler {
	if verifier == nil {
		panic("totp verifier is required")
	}
	if issuer == nil {
		panic("step-up issuer is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{
		verifier:    verifier,
		issuer:      issuer,
		auditor:     auditor,
		logger:      logger,
		totpIssuer:  totpIssuer,
		accountName: accountName,
	}
}

// Mount registers the verification routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/api/token", h.token)
	r.Post("/api/verify", h.verify)
}

// token returns the otpauth provisioning URI for enrolling an authenticator.
func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"uri": h.verifier.ProvisioningURI(h.totpIssuer, h.accountName),
	})
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteValidation(w, "request body must be valid JSON")
		return
	}
	if req.Token == "" {
		httpapi.WriteValidation(w, "token is required")
		return
	}

	actor, ip := audit.RequestIdentity(r)

	if !h.verifier.Verify(req.Token) {
		h.auditor.Record(r.Context(), audit.Entry{
			Actor:     actor,
			Action:    "AUTH.VERIFY",
			Target:    h.accountName,
			Status:    audit.StatusFailure,
			IPAddress: ip,
		})
		httpapi.WriteJSON(w, http.StatusUnauthorized, map[string]any{"result": false})
		return
	}

	credential, err := h.issuer.Issue(actor)
	if err != nil {
		logging.FromRequest(r, h.logger).Error("issuing step-up credential failed", zap.Error(err))
		httpapi.WriteInternal(w)
		return
	}

	h.auditor.Record(r.Context(), audit.Entry{
		Actor:     actor,
		Action:    "AUTH.VERIFY",
		Target:    h.accountName,
		Status:    audit.StatusSuccess,
		IPAddress: ip,
	})

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"result":     true,
		"credential": credential,
	})
}
