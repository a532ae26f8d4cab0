package orgscan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// Status is one org scan's lifecycle snapshot. Result is populated only on
// completion; a failed tree read sets Error instead.
type Status struct {
	ID          string                `json:"id"`
	State       domain.JobStatus      `json:"state"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Result      *domain.OrgScanResult `json:"result,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Runner tracks in-flight org scans so HTTP callers can poll them the same
// way they poll single-account jobs. One org scan runs per Start call; the
// coordinator itself serializes accounts within it.
type Runner struct {
	coordinator *Coordinator

	mu    sync.RWMutex
	scans map[string]Status
}

func NewRunner(coordinator *Coordinator) *Runner {
	return &Runner{coordinator: coordinator, scans: make(map[string]Status)}
}

// Start launches an org scan in the background and returns its id.
func (r *Runner) Start(ctx context.Context, skillIDs, regions []string, managementAccountID string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.scans[id] = Status{ID: id, State: domain.JobStatusRunning, StartedAt: time.Now().UTC()}
	r.mu.Unlock()

	// The scan outlives the request; keep its logger, drop its deadline.
	scanCtx := zerolog.Ctx(ctx).WithContext(context.Background())
	go func() {
		result, err := r.coordinator.Scan(scanCtx, skillIDs, regions, managementAccountID)
		now := time.Now().UTC()

		r.mu.Lock()
		defer r.mu.Unlock()
		status := r.scans[id]
		status.CompletedAt = &now
		if err != nil {
			status.State = domain.JobStatusFailed
			status.Error = err.Error()
		} else {
			status.State = domain.JobStatusCompleted
			status.Result = &result
		}
		r.scans[id] = status
	}()
	return id
}

// Get returns the scan's current snapshot.
func (r *Runner) Get(id string) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.scans[id]
	if !ok {
		return Status{}, domain.NewError(domain.KindNotFound, "org scan %s not found", id)
	}
	return status, nil
}
