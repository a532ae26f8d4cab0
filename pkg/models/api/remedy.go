package api

import "github.com/de-tools/ops-agent/pkg/models/domain"

type ProposeRequest struct {
	Finding domain.Finding `json:"finding"`
}

type ProposeResponse struct {
	Token      string `json:"token"`
	Action     string `json:"action"`
	ResourceID string `json:"resource_id"`
	ExpiresAt  string `json:"expires_at"`
}

type ConfirmResponse struct {
	Success    bool   `json:"success"`
	Action     string `json:"action"`
	ResourceID string `json:"resource_id"`
	Message    string `json:"message"`
}

type ChatRequest struct {
	SessionID    string           `json:"session_id"`
	Message      string           `json:"message"`
	Findings     []domain.Finding `json:"findings,omitempty"`
	SkillsRun    []string         `json:"skills_run,omitempty"`
	SkillsNotRun []string         `json:"skills_not_run,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
