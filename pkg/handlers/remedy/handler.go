// Package remedy exposes the propose/confirm remediation handshake over
// HTTP.
package remedy

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/de-tools/ops-agent/pkg/handlers/respond"
	"github.com/de-tools/ops-agent/pkg/models/api"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/remediation"
)

type Handler struct {
	engine *remediation.Engine
}

func NewHandler(engine *remediation.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	var req api.ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Finding.Skill == "" || req.Finding.Title == "" {
		respond.JSON(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "finding requires skill and title"})
		return
	}

	request, err := h.engine.Propose(r.Context(), req.Finding, domain.Credentials{})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, api.ProposeResponse{
		Token:      request.Token,
		Action:     request.Action,
		ResourceID: request.Finding.ResourceID,
		ExpiresAt:  request.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Confirm(r.Context(), chi.URLParam(r, "token"))
	if err != nil && domain.KindOf(err) != domain.KindExecutionFailed {
		respond.Error(w, r, err)
		return
	}
	// Execution failures still carry a result; the caller sees the outcome
	// with a 200 and success=false rather than an opaque gateway error.
	respond.JSON(w, r, http.StatusOK, api.ConfirmResponse{
		Success:    result.Success,
		Action:     result.Action,
		ResourceID: result.ResourceID,
		Message:    result.Message,
	})
}
