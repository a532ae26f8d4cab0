// Package chat exposes the assistant pipeline over HTTP.
package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/de-tools/ops-agent/pkg/chat"
	"github.com/de-tools/ops-agent/pkg/handlers/respond"
	"github.com/de-tools/ops-agent/pkg/models/api"
)

// maxFindingsPayload caps the grounding findings a single turn may carry.
const maxFindingsPayload = 500

type Handler struct {
	service *chat.Service
}

func NewHandler(service *chat.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.JSON(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "message cannot be empty"})
		return
	}
	findings := req.Findings
	if len(findings) > maxFindingsPayload {
		findings = findings[:maxFindingsPayload]
	}

	response, err := h.service.Handle(r.Context(), chat.Request{
		SessionID:    req.SessionID,
		Message:      req.Message,
		Findings:     findings,
		SkillsRun:    req.SkillsRun,
		SkillsNotRun: req.SkillsNotRun,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, response)
}
