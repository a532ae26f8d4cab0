// Package scan exposes the skill catalog and the scan job lifecycle over
// HTTP.
package scan

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/de-tools/ops-agent/pkg/handlers/respond"
	"github.com/de-tools/ops-agent/pkg/jobs"
	"github.com/de-tools/ops-agent/pkg/models/api"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/orgscan"
	"github.com/de-tools/ops-agent/pkg/skills"
)

type Handler struct {
	registry       *skills.Registry
	orchestrator   *jobs.Orchestrator
	orgRunner      *orgscan.Runner
	defaultRegions []string
	mgmtAccountID  string
}

func NewHandler(
	registry *skills.Registry,
	orchestrator *jobs.Orchestrator,
	orgRunner *orgscan.Runner,
	defaultRegions []string,
	mgmtAccountID string,
) *Handler {
	return &Handler{
		registry:       registry,
		orchestrator:   orchestrator,
		orgRunner:      orgRunner,
		defaultRegions: defaultRegions,
		mgmtAccountID:  mgmtAccountID,
	}
}

func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	descriptors := h.registry.List()
	response := make([]api.SkillDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		response = append(response, api.SkillDescriptor{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
		})
	}
	respond.JSON(w, r, http.StatusOK, response)
}

func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	skillIDs := req.SkillIDs
	if len(skillIDs) == 0 {
		skillIDs = h.registry.IDs()
	}
	regions := req.Regions
	if len(regions) == 0 {
		regions = h.defaultRegions
	}

	job, err := h.orchestrator.Submit(r.Context(), skillIDs, domain.Scope{Regions: regions})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusAccepted, api.ScanResponse{JobID: job.ID, Status: string(job.Status)})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.orchestrator.Status(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, toJobResponse(job))
}

func (h *Handler) GetJobResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.orchestrator.Status(id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	results, err := h.orchestrator.Results(id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, api.JobResultsResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Results: results,
	})
}

func (h *Handler) StartOrgScan(w http.ResponseWriter, r *http.Request) {
	var req api.OrgScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, r, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	skillIDs := req.SkillIDs
	if len(skillIDs) == 0 {
		skillIDs = h.registry.IDs()
	}
	for _, id := range skillIDs {
		if _, err := h.registry.Get(id); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	regions := req.Regions
	if len(regions) == 0 {
		regions = h.defaultRegions
	}

	id := h.orgRunner.Start(r.Context(), skillIDs, regions, h.mgmtAccountID)
	respond.JSON(w, r, http.StatusAccepted, api.ScanResponse{JobID: id, Status: string(domain.JobStatusRunning)})
}

func (h *Handler) GetOrgScan(w http.ResponseWriter, r *http.Request) {
	status, err := h.orgRunner.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, status)
}

func toJobResponse(job domain.Job) api.JobResponse {
	response := api.JobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		SkillIDs:  job.SkillIDs,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		Error:     job.Error,
	}
	if job.CompletedAt != nil {
		response.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return response
}
