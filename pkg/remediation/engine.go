package remediation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

const DefaultTokenTTL = 5 * time.Minute

// Mutator is the slice of the cloud gateway the engine writes through.
type Mutator interface {
	Mutate(ctx context.Context, m gateway.Mutation, creds domain.Credentials) (string, error)
}

// Engine issues single-use confirmation tokens for remediable findings and
// executes the matching mutation exactly once per token. There is no
// propose-and-execute shortcut; every mutation rides a confirmed token.
type Engine struct {
	mutator Mutator
	audit   *AuditLog
	ttl     time.Duration

	mu      sync.Mutex
	pending map[string]pendingRequest

	now func() time.Time
}

type pendingRequest struct {
	request domain.RemediationRequest
	pat     pattern
	creds   domain.Credentials
}

func NewEngine(mutator Mutator, audit *AuditLog, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Engine{
		mutator: mutator,
		audit:   audit,
		ttl:     ttl,
		pending: make(map[string]pendingRequest),
		now:     time.Now,
	}
}

// Propose matches a finding against the action table and, on a hit, issues a
// confirmation token. Credentials captured here are the ones the later
// Confirm call mutates with, so cross-account proposals stay scoped to the
// account they were scanned in.
func (e *Engine) Propose(ctx context.Context, finding domain.Finding, creds domain.Credentials) (domain.RemediationRequest, error) {
	p, ok := lookup(finding)
	if !ok {
		return domain.RemediationRequest{}, domain.NewError(
			domain.KindNoRemediationAvailable,
			"no remediation available for finding %q from skill %s", finding.Title, finding.Skill,
		)
	}

	now := e.now().UTC()
	request := domain.RemediationRequest{
		Token:     uuid.NewString(),
		Action:    p.Action,
		Finding:   finding,
		IssuedAt:  now,
		ExpiresAt: now.Add(e.ttl),
	}

	e.mu.Lock()
	e.sweepLocked(now)
	e.pending[request.Token] = pendingRequest{request: request, pat: p, creds: creds}
	e.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Str("action", p.Action).
		Str("resource_id", finding.ResourceID).
		Time("expires_at", request.ExpiresAt).
		Msg("remediation proposed")
	return request, nil
}

// Confirm consumes a token and executes its mutation. The token is removed
// before the mutation runs, so a retry after any outcome sees InvalidToken
// and the mutation is never issued twice. Exactly one audit entry is
// appended per consumed token.
func (e *Engine) Confirm(ctx context.Context, token string) (domain.ExecutionResult, error) {
	now := e.now().UTC()

	e.mu.Lock()
	e.sweepLocked(now)
	p, ok := e.pending[token]
	if ok {
		delete(e.pending, token)
	}
	e.mu.Unlock()

	if !ok {
		return domain.ExecutionResult{}, domain.NewError(
			domain.KindInvalidToken, "unknown, expired, or already used token",
		)
	}

	finding := p.request.Finding
	message, err := e.mutator.Mutate(ctx, mutationFor(p.pat, finding), p.creds)

	result := domain.ExecutionResult{
		Success:    err == nil,
		Action:     p.request.Action,
		ResourceID: finding.ResourceID,
		Message:    message,
		Timestamp:  now,
	}
	outcome := "success"
	if err != nil {
		result.Message = err.Error()
		outcome = "failure"
	}

	e.audit.Append(ctx, domain.AuditEntry{
		Actor:      "operator",
		Action:     p.request.Action,
		ResourceID: finding.ResourceID,
		Region:     finding.Region,
		Skill:      finding.Skill,
		Outcome:    outcome,
		Detail:     result.Message,
	})

	if err != nil {
		return result, domain.WrapError(
			domain.KindExecutionFailed, err,
			"remediation %s failed for %s", p.request.Action, finding.ResourceID,
		)
	}

	zerolog.Ctx(ctx).Info().
		Str("action", p.request.Action).
		Str("resource_id", finding.ResourceID).
		Msg("remediation executed")
	return result, nil
}

// Pending returns the count of unexpired outstanding tokens.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sweepLocked(e.now().UTC())
	return len(e.pending)
}

func (e *Engine) sweepLocked(now time.Time) {
	for token, p := range e.pending {
		if now.After(p.request.ExpiresAt) {
			delete(e.pending, token)
		}
	}
}
