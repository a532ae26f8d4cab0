package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	regexp "github.com/wasilibs/go-re2"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/remediation"
)

const DefaultMaxMessageLen = 4000

const systemPrompt = `You are a professional assistant built into a cloud operations service. You are knowledgeable, respectful, and concise.

RULES:
1. ONLY reference findings explicitly provided in the context below. NEVER fabricate findings, resource IDs, or issues.
2. When findings ARE provided, quote exact titles, resource IDs, regions, and monthly impact values.
3. The context lists which skills have been run and which have not. If the user asks about a skill that has NOT been run, mention only that one skill and explain it needs to be run first.
4. If the user asks you to run scans, explain that scans are started through the scan API and you help analyze and act on the results.
5. When the user asks to FIX an issue that is marked [HAS FIX IT BUTTON]:
   a. Explain what will happen, including the API call and resource ID.
   b. Ask: 'Would you like me to proceed? Please reply YES to confirm.'
   For [manual fix only] findings, give clear manual steps instead.
6. Present findings grouped by severity with a closing total line. Skip empty fields. Do not dump raw pipe-separated context data.
7. Keep paragraphs compact with single line breaks.
8. For general cloud questions outside the current findings, answer helpfully from your own knowledge. Just never fabricate scan findings.`

var (
	affirmativeRe  = regexp.MustCompile(`(?i)^\s*(yes|yep|yeah|confirm|proceed|go ahead|do it)\b`)
	confirmationRe = regexp.MustCompile(`(?i)(reply\s+yes|yes\s+to\s+confirm|would you like me to proceed)`)
)

// Request is one chat turn together with the caller's current scan state.
// Findings are the only grounding data the backend ever sees.
type Request struct {
	SessionID    string
	Message      string
	Findings     []domain.Finding
	SkillsRun    []string
	SkillsNotRun []string
}

// Response is the assistant's reply. Blocked turns carry the guardrail
// reason and a fixed refusal in Reply; the backend was not called.
type Response struct {
	Reply   string `json:"reply"`
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// Service runs the per-turn pipeline and tracks proposed fixes awaiting an
// affirmative turn. A tracked fix is executed through the remediation
// engine's propose/confirm pair, never directly.
type Service struct {
	completer gateway.Completer
	engine    *remediation.Engine
	audit     *remediation.AuditLog
	maxLen    int

	mu      sync.Mutex
	pending map[string]domain.Finding
}

func NewService(completer gateway.Completer, engine *remediation.Engine, audit *remediation.AuditLog, maxLen int) *Service {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	return &Service{
		completer: completer,
		engine:    engine,
		audit:     audit,
		maxLen:    maxLen,
		pending:   make(map[string]domain.Finding),
	}
}

// Handle runs one chat turn through the full pipeline.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	logger := zerolog.Ctx(ctx)

	message := stripControlChars(req.Message)
	if len(message) > s.maxLen {
		return Response{}, domain.NewError(
			domain.KindInputTooLarge,
			"message is %d characters, limit is %d", len(message), s.maxLen,
		)
	}

	if result := applyGuardrails(message); !result.Allowed {
		logger.Warn().
			Str("reason", result.Reason).
			Str("session", req.SessionID).
			Msg("chat guardrail blocked input")
		s.audit.Append(ctx, domain.AuditEntry{
			Actor:   "chat",
			Action:  "chat_exchange",
			Outcome: "blocked",
			Detail:  result.Reason,
		})
		return Response{Reply: result.Refusal, Blocked: true, Reason: result.Reason}, nil
	}

	if finding, ok := s.takePending(req.SessionID, message); ok {
		return s.executePending(ctx, req.SessionID, finding)
	}

	grounding := buildContext(req.Findings, req.SkillsRun, req.SkillsNotRun)
	reply, err := s.completer.Complete(ctx, systemPrompt, grounding+"\n\n"+message)
	if err != nil {
		return Response{}, err
	}
	reply = sanitizeOutput(reply)

	s.trackPending(ctx, req.SessionID, reply, req.Findings)

	s.audit.Append(ctx, domain.AuditEntry{
		Actor:   "chat",
		Action:  "chat_exchange",
		Outcome: "answered",
	})
	return Response{Reply: reply}, nil
}

// takePending consumes the session's tracked fix when the turn is an
// affirmative answer to a prior confirmation prompt.
func (s *Service) takePending(sessionID, message string) (domain.Finding, bool) {
	if !affirmativeRe.MatchString(message) {
		return domain.Finding{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	finding, ok := s.pending[sessionID]
	if ok {
		delete(s.pending, sessionID)
	}
	return finding, ok
}

// executePending routes an affirmed fix through the engine's two-step
// contract. The proposal and its confirmation happen here back to back; the
// user's YES in chat stands in for the confirm call.
func (s *Service) executePending(ctx context.Context, sessionID string, finding domain.Finding) (Response, error) {
	request, err := s.engine.Propose(ctx, finding, domain.Credentials{})
	if err != nil {
		return Response{}, err
	}
	result, err := s.engine.Confirm(ctx, request.Token)
	if err != nil {
		reply := fmt.Sprintf("The fix for %s failed: %s", finding.ResourceID, result.Message)
		s.audit.Append(ctx, domain.AuditEntry{
			Actor:      "chat",
			Action:     "chat_exchange",
			ResourceID: finding.ResourceID,
			Outcome:    "fix_failed",
			Detail:     result.Message,
		})
		return Response{Reply: reply}, nil
	}

	zerolog.Ctx(ctx).Info().
		Str("session", sessionID).
		Str("resource_id", finding.ResourceID).
		Str("action", result.Action).
		Msg("chat-confirmed fix executed")
	s.audit.Append(ctx, domain.AuditEntry{
		Actor:      "chat",
		Action:     "chat_exchange",
		ResourceID: finding.ResourceID,
		Outcome:    "fix_executed",
		Detail:     result.Message,
	})
	return Response{Reply: fmt.Sprintf("Done. %s", result.Message)}, nil
}

// trackPending records a fix awaiting confirmation when the reply asks for
// one and names a remediable resource from the caller's own findings.
func (s *Service) trackPending(ctx context.Context, sessionID, reply string, findings []domain.Finding) {
	if !confirmationRe.MatchString(reply) {
		return
	}
	for _, f := range findings {
		if f.ResourceID == "" || !strings.Contains(reply, f.ResourceID) {
			continue
		}
		if !remediation.HasRemediation(f) {
			continue
		}
		s.mu.Lock()
		s.pending[sessionID] = f
		s.mu.Unlock()
		zerolog.Ctx(ctx).Debug().
			Str("session", sessionID).
			Str("resource_id", f.ResourceID).
			Msg("pending fix tracked")
		return
	}
}
