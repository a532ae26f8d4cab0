package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/skills"
	"github.com/rs/zerolog"
)

const defaultWorkers = 8

type task struct {
	jobID string
	skill skills.Skill
	scope domain.Scope
	ctx   context.Context
}

// Orchestrator executes skills concurrently on a fixed-size worker pool.
// Pool size, not fan-out width, bounds the pressure on provider APIs.
type Orchestrator struct {
	registry *skills.Registry
	store    *Store

	mu     sync.RWMutex
	tasks  chan task
	wg     sync.WaitGroup
	closed bool
}

type Options struct {
	Workers int
}

func NewOrchestrator(registry *skills.Registry, store *Store, opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	o := &Orchestrator{
		registry: registry,
		store:    store,
		tasks:    make(chan task),
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.worker()
	}
	return o
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for t := range o.tasks {
		result := t.skill.Scan(t.ctx, t.scope)
		o.store.WriteResult(t.jobID, result)
	}
}

// Submit creates a job for the given skills and schedules each scan on the
// pool. The job transitions to running immediately; completion happens when
// the last skill reports, regardless of per-skill errors.
func (o *Orchestrator) Submit(ctx context.Context, skillIDs []string, scope domain.Scope) (domain.Job, error) {
	resolved := make([]skills.Skill, 0, len(skillIDs))
	for _, id := range skillIDs {
		s, err := o.registry.Get(id)
		if err != nil {
			return domain.Job{}, err
		}
		resolved = append(resolved, s)
	}

	job := o.store.Create(skillIDs)
	o.store.MarkRunning(job.ID)

	// Scans outlive the submitting request; detach from its cancellation
	// but keep the request logger.
	scanCtx := zerolog.Ctx(ctx).WithContext(context.Background())

	go func() {
		for _, s := range resolved {
			if !o.enqueue(task{jobID: job.ID, skill: s, scope: scope, ctx: scanCtx}) {
				o.store.Fail(job.ID, "worker pool is shut down")
				return
			}
		}
	}()

	return o.store.Job(job.ID)
}

func (o *Orchestrator) enqueue(t task) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return false
	}
	o.tasks <- t
	return true
}

func (o *Orchestrator) Status(jobID string) (domain.Job, error) {
	return o.store.Job(jobID)
}

func (o *Orchestrator) Results(jobID string) ([]domain.SkillResult, error) {
	return o.store.Results(jobID)
}

// Wait polls a job until it reaches a terminal state. Exhausting the
// polling budget reports Timeout, which is not the same as the job having
// failed; the job may still complete later.
func (o *Orchestrator) Wait(ctx context.Context, jobID string, attempts int, interval time.Duration) (domain.Job, error) {
	for i := 0; i < attempts; i++ {
		job, err := o.store.Job(jobID)
		if err != nil {
			return domain.Job{}, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return domain.Job{}, domain.WrapError(domain.KindTimeout, ctx.Err(), "wait cancelled for job %s", jobID)
		case <-time.After(interval):
		}
	}
	return domain.Job{}, domain.NewError(domain.KindTimeout, "job %s did not finish within %d polls", jobID, attempts)
}

// RunScan executes the skills synchronously through the same pool and
// returns the results directly. Used by the org coordinator and the CLI.
func (o *Orchestrator) RunScan(ctx context.Context, skillIDs []string, scope domain.Scope) ([]domain.SkillResult, error) {
	job, err := o.Submit(ctx, skillIDs, scope)
	if err != nil {
		return nil, err
	}

	for {
		current, err := o.store.Job(job.ID)
		if err != nil {
			return nil, err
		}
		if current.Status.Terminal() {
			if current.Status == domain.JobStatusFailed {
				return nil, domain.NewError(domain.KindUpstreamUnavailable, "scan failed: %s", current.Error)
			}
			return o.store.Results(job.ID)
		}
		select {
		case <-ctx.Done():
			return nil, domain.WrapError(domain.KindTimeout, ctx.Err(), "scan cancelled")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Shutdown stops the pool. In-flight scans finish; new submits fail their
// jobs.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.tasks)
	o.mu.Unlock()
	o.wg.Wait()
}
