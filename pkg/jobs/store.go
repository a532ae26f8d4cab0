// Package jobs runs skill scans on a bounded worker pool and tracks each
// run as an in-memory job that callers poll without blocking.
package jobs

import (
	"sync"
	"time"

	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/google/uuid"
)

// Store owns every job and its results. It is the only mutable shared
// structure in the core: all access goes through the mutex, and reads
// return copies so completed results can never be mutated by callers.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]domain.Job
	results   map[string]map[string]domain.SkillResult
	remaining map[string]int
}

func NewStore() *Store {
	return &Store{
		jobs:      make(map[string]domain.Job),
		results:   make(map[string]map[string]domain.SkillResult),
		remaining: make(map[string]int),
	}
}

func (s *Store) Create(skillIDs []string) domain.Job {
	job := domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusPending,
		SkillIDs:  append([]string(nil), skillIDs...),
		CreatedAt: time.Now().UTC(),
	}
	// An empty skill set has nothing left to report; completion via
	// WriteResult would never fire, so the job is terminal from the start.
	if len(skillIDs) == 0 {
		now := job.CreatedAt
		job.Status = domain.JobStatusCompleted
		job.CompletedAt = &now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	s.results[job.ID] = make(map[string]domain.SkillResult, len(skillIDs))
	s.remaining[job.ID] = len(skillIDs)
	return job
}

func (s *Store) MarkRunning(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusPending {
		return
	}
	job.Status = domain.JobStatusRunning
	s.jobs[jobID] = job
}

// WriteResult records one skill's result (last write wins per skill) and
// completes the job once every skill in its set has reported.
func (s *Store) WriteResult(jobID string, result domain.SkillResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}

	s.results[jobID][result.Skill] = result.Clone()
	s.remaining[jobID]--
	if s.remaining[jobID] > 0 {
		return
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	s.jobs[jobID] = job
}

// Fail marks a job failed with the given cause. Results written so far
// stay readable; terminal jobs are never updated again.
func (s *Store) Fail(jobID string, cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.Error = cause
	job.CompletedAt = &now
	s.jobs[jobID] = job
}

func (s *Store) Job(jobID string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, domain.NewError(domain.KindNotFound, "unknown job: %s", jobID)
	}
	job.SkillIDs = append([]string(nil), job.SkillIDs...)
	return job, nil
}

// Results returns whatever has been written so far, ordered by the job's
// skill set. Calling before completion is fine; there is no waiting.
func (s *Store) Results(jobID string) ([]domain.SkillResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "unknown job: %s", jobID)
	}

	results := make([]domain.SkillResult, 0, len(job.SkillIDs))
	for _, id := range job.SkillIDs {
		if r, written := s.results[jobID][id]; written {
			results = append(results, r.Clone())
		}
	}
	return results, nil
}
