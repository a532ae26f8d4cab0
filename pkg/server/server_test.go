package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ops-agent/pkg/chat"
	"github.com/de-tools/ops-agent/pkg/gateway"
	chathandler "github.com/de-tools/ops-agent/pkg/handlers/chat"
	"github.com/de-tools/ops-agent/pkg/handlers/remedy"
	scanhandler "github.com/de-tools/ops-agent/pkg/handlers/scan"
	"github.com/de-tools/ops-agent/pkg/jobs"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/remediation"
	"github.com/de-tools/ops-agent/pkg/skills"
)

type stubSkill struct{ id string }

func (s stubSkill) Describe() skills.Descriptor {
	return skills.Descriptor{ID: s.id, Name: s.id, Description: "stub"}
}

func (s stubSkill) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return domain.SkillResult{Skill: s.id}
}

type stubMutator struct{}

func (stubMutator) Mutate(ctx context.Context, mut gateway.Mutation, creds domain.Credentials) (string, error) {
	return "done", nil
}

type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	return "All clear.", nil
}

func newTestAPI(t *testing.T, apiKey string) *WebAPI {
	t.Helper()
	registry, err := skills.NewRegistry(stubSkill{id: "zombie-hunter"})
	require.NoError(t, err)

	orchestrator := jobs.NewOrchestrator(registry, jobs.NewStore(), jobs.Options{Workers: 1})
	t.Cleanup(orchestrator.Shutdown)

	audit := remediation.NewAuditLog()
	engine := remediation.NewEngine(stubMutator{}, audit, 5*time.Minute)

	return NewWebAPI(zerolog.Nop(), Config{
		Addr:          ":0",
		APIKey:        apiKey,
		RatePerSecond: 1000,
		RateBurst:     1000,
		Dependencies: Dependencies{
			Scan:   scanhandler.NewHandler(registry, orchestrator, nil, []string{"us-east-1"}, ""),
			Remedy: remedy.NewHandler(engine),
			Chat:   chathandler.NewHandler(chat.NewService(stubCompleter{}, engine, audit, 0)),
		},
	})
}

func TestRoutes(t *testing.T) {
	api := newTestAPI(t, "")

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"health", "GET", "/api/v1/health", "", http.StatusOK},
		{"list skills", "GET", "/api/v1/skills", "", http.StatusOK},
		{"start scan", "POST", "/api/v1/scans", `{}`, http.StatusAccepted},
		{"unknown job", "GET", "/api/v1/jobs/missing", "", http.StatusNotFound},
		{"propose without action", "POST", "/api/v1/remediations",
			`{"finding":{"skill":"cost-anomaly","title":"Spend spike"}}`, http.StatusUnprocessableEntity},
		{"confirm unknown token", "POST", "/api/v1/remediations/bogus/confirm", "", http.StatusConflict},
		{"chat", "POST", "/api/v1/chat", `{"session_id":"s1","message":"hello"}`, http.StatusOK},
		{"unknown route", "GET", "/api/v1/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			rec := httptest.NewRecorder()
			api.Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestAPIKeyGuardsRoutes(t *testing.T) {
	api := newTestAPI(t, "secret")

	req := httptest.NewRequest("GET", "/api/v1/skills", nil)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("GET", "/api/v1/skills", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays reachable for probes.
	req = httptest.NewRequest("GET", "/api/v1/health", nil)
	rec = httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	api := newTestAPI(t, "")

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
