package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/skills"
)

// fakeSkill runs a canned scan function, optionally blocking until released.
type fakeSkill struct {
	id    string
	block chan struct{}
	calls atomic.Int32
	scan  func(scope domain.Scope) domain.SkillResult
}

func (f *fakeSkill) Describe() skills.Descriptor {
	return skills.Descriptor{ID: f.id, Name: f.id}
}

func (f *fakeSkill) Scan(_ context.Context, scope domain.Scope) domain.SkillResult {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.scan != nil {
		return f.scan(scope)
	}
	return domain.SkillResult{Skill: f.id}
}

func findingsResult(skill string, titles ...string) domain.SkillResult {
	result := domain.SkillResult{Skill: skill}
	for _, title := range titles {
		result.Findings = append(result.Findings, domain.Finding{Skill: skill, Title: title})
	}
	return result
}

func newTestOrchestrator(t *testing.T, skillSet ...skills.Skill) *Orchestrator {
	t.Helper()
	registry, err := skills.NewRegistry(skillSet...)
	require.NoError(t, err)
	o := NewOrchestrator(registry, NewStore(), Options{Workers: 4})
	t.Cleanup(o.Shutdown)
	return o
}

func TestSubmitUnknownSkill(t *testing.T) {
	o := newTestOrchestrator(t, &fakeSkill{id: "a"})

	_, err := o.Submit(context.Background(), []string{"a", "missing"}, domain.Scope{})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestSubmitEmptySkillSetCompletesImmediately(t *testing.T) {
	o := newTestOrchestrator(t, &fakeSkill{id: "a"})

	job, err := o.Submit(context.Background(), nil, domain.Scope{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)

	// Wait must see the terminal state instead of polling out.
	waited, err := o.Wait(context.Background(), job.ID, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, waited.Status)

	results, err := o.Results(job.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestJobCompletesOnlyWhenAllSkillsFinish(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	slow := &fakeSkill{id: "slow", block: release}
	fast := &fakeSkill{id: "fast", scan: func(domain.Scope) domain.SkillResult {
		return findingsResult("fast", "Unused EIP: 203.0.113.10")
	}}
	o := newTestOrchestrator(t, slow, fast)

	job, err := o.Submit(ctx, []string{"slow", "fast"}, domain.Scope{Regions: []string{"us-east-1"}})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, job.Status)

	// The fast skill finishes, the slow one is still held: partial results
	// are readable and the job is not terminal.
	assert.Eventually(t, func() bool {
		results, err := o.Results(job.ID)
		return err == nil && len(results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	current, err := o.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, current.Status)

	close(release)
	final, err := o.Wait(ctx, job.ID, 100, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, final.Status)
	assert.NotNil(t, final.CompletedAt)

	results, err := o.Results(job.ID)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	// Results come back ordered by the job's skill set.
	assert.Equal(t, "slow", results[0].Skill)
	assert.Equal(t, "fast", results[1].Skill)
}

func TestSkillErrorDoesNotFailJob(t *testing.T) {
	ctx := context.Background()
	a := &fakeSkill{id: "a", scan: func(domain.Scope) domain.SkillResult {
		return findingsResult("a", "Unattached EBS: vol-123")
	}}
	b := &fakeSkill{id: "b", scan: func(domain.Scope) domain.SkillResult {
		return domain.SkillResult{Skill: "b", Errors: []string{"ebs: throttled"}}
	}}
	c := &fakeSkill{id: "c", scan: func(domain.Scope) domain.SkillResult {
		return findingsResult("c", "Public S3 bucket: data")
	}}
	o := newTestOrchestrator(t, a, b, c)

	job, err := o.Submit(ctx, []string{"a", "b", "c"}, domain.Scope{})
	require.NoError(t, err)

	final, err := o.Wait(ctx, job.ID, 100, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, final.Status)
	assert.Empty(t, final.Error)

	results, err := o.Results(job.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"ebs: throttled"}, results[1].Errors)
	assert.Empty(t, results[1].Findings)
}

func TestResultsAreImmutableCopies(t *testing.T) {
	ctx := context.Background()
	a := &fakeSkill{id: "a", scan: func(domain.Scope) domain.SkillResult {
		result := findingsResult("a", "Idle EC2: i-1")
		result.Findings[0].Metadata = map[string]string{"cpu_avg_7d": "0.5"}
		return result
	}}
	o := newTestOrchestrator(t, a)

	job, err := o.Submit(ctx, []string{"a"}, domain.Scope{})
	require.NoError(t, err)
	_, err = o.Wait(ctx, job.ID, 100, 10*time.Millisecond)
	require.NoError(t, err)

	first, err := o.Results(job.ID)
	require.NoError(t, err)
	first[0].Findings[0].Title = "tampered"
	first[0].Findings[0].Metadata["cpu_avg_7d"] = "99"

	second, err := o.Results(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Idle EC2: i-1", second[0].Findings[0].Title)
	assert.Equal(t, "0.5", second[0].Findings[0].Metadata["cpu_avg_7d"])
}

func TestWaitTimeoutIsNotFailed(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := &fakeSkill{id: "slow", block: release}
	o := newTestOrchestrator(t, slow)

	job, err := o.Submit(context.Background(), []string{"slow"}, domain.Scope{})
	require.NoError(t, err)

	_, err = o.Wait(context.Background(), job.ID, 3, 5*time.Millisecond)
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))

	// The job itself is still running, not failed.
	current, err := o.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, current.Status)
}

func TestSubmitAfterShutdownFailsJob(t *testing.T) {
	registry, err := skills.NewRegistry(&fakeSkill{id: "a"})
	require.NoError(t, err)
	o := NewOrchestrator(registry, NewStore(), Options{Workers: 1})
	o.Shutdown()

	job, err := o.Submit(context.Background(), []string{"a"}, domain.Scope{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		current, err := o.Status(job.ID)
		return err == nil && current.Status == domain.JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	current, _ := o.Status(job.ID)
	assert.Contains(t, current.Error, "shut down")
}

func TestRunScanSynchronous(t *testing.T) {
	a := &fakeSkill{id: "a", scan: func(domain.Scope) domain.SkillResult {
		return findingsResult("a", "Unused NAT GW: nat-1")
	}}
	o := newTestOrchestrator(t, a)

	results, err := o.RunScan(context.Background(), []string{"a"}, domain.Scope{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Unused NAT GW: nat-1", results[0].Findings[0].Title)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestStatusUnknownJob(t *testing.T) {
	o := newTestOrchestrator(t, &fakeSkill{id: "a"})
	_, err := o.Status("nope")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
