// Package api holds the request and response shapes of the HTTP surface.
package api

import "github.com/de-tools/ops-agent/pkg/models/domain"

type SkillDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ScanRequest struct {
	// SkillIDs empty means run every registered skill.
	SkillIDs []string `json:"skill_ids"`
	Regions  []string `json:"regions"`
}

type ScanResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobResponse struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	SkillIDs    []string `json:"skill_ids"`
	CreatedAt   string   `json:"created_at"`
	CompletedAt string   `json:"completed_at,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type JobResultsResponse struct {
	JobID   string               `json:"job_id"`
	Status  string               `json:"status"`
	Results []domain.SkillResult `json:"results"`
}

type OrgScanRequest struct {
	SkillIDs []string `json:"skill_ids"`
	Regions  []string `json:"regions"`
}
