package remedy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/api"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/remediation"
)

type mockMutator struct {
	mock.Mock
}

func (m *mockMutator) Mutate(ctx context.Context, mut gateway.Mutation, creds domain.Credentials) (string, error) {
	args := m.Called(ctx, mut, creds)
	return args.String(0), args.Error(1)
}

func setupHandler(mutator *mockMutator) *Handler {
	engine := remediation.NewEngine(mutator, remediation.NewAuditLog(), 5*time.Minute)
	return NewHandler(engine)
}

func proposeBody(t *testing.T, finding domain.Finding) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(api.ProposeRequest{Finding: finding})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func volumeFinding() domain.Finding {
	return domain.Finding{
		Skill:      "zombie-hunter",
		Title:      "Unattached EBS: vol-123",
		ResourceID: "vol-123",
		Region:     "us-east-1",
	}
}

func TestPropose(t *testing.T) {
	tests := []struct {
		name           string
		finding        domain.Finding
		expectedStatus int
		expectedAction string
	}{
		{
			name:           "remediable finding",
			finding:        volumeFinding(),
			expectedStatus: http.StatusCreated,
			expectedAction: "delete_ebs_volume",
		},
		{
			name: "no action for this finding",
			finding: domain.Finding{
				Skill:      "cost-anomaly",
				Title:      "Spend spike in us-east-1",
				ResourceID: "us-east-1",
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "missing skill and title",
			finding:        domain.Finding{ResourceID: "vol-123"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHandler(new(mockMutator))

			req := httptest.NewRequest("POST", "/api/v1/remediations", proposeBody(t, tt.finding))
			rec := httptest.NewRecorder()
			h.Propose(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusCreated {
				var response api.ProposeResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
				assert.NotEmpty(t, response.Token)
				assert.Equal(t, tt.expectedAction, response.Action)
				assert.Equal(t, tt.finding.ResourceID, response.ResourceID)
				assert.NotEmpty(t, response.ExpiresAt)
			}
		})
	}
}

func TestConfirm(t *testing.T) {
	mutator := new(mockMutator)
	mutator.On("Mutate", mock.Anything, mock.Anything, mock.Anything).
		Return("Deleted EBS volume vol-123", nil).Once()
	h := setupHandler(mutator)

	token := proposeToken(t, h)

	rec := httptest.NewRecorder()
	h.Confirm(rec, confirmRequest(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response api.ConfirmResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, "delete_ebs_volume", response.Action)
	assert.Equal(t, "vol-123", response.ResourceID)

	// The token is consumed; a second confirm conflicts.
	rec = httptest.NewRecorder()
	h.Confirm(rec, confirmRequest(token))
	assert.Equal(t, http.StatusConflict, rec.Code)
	mutator.AssertNumberOfCalls(t, "Mutate", 1)
}

func TestConfirmExecutionFailureIsAnOutcome(t *testing.T) {
	mutator := new(mockMutator)
	mutator.On("Mutate", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("VolumeInUse: vol-123 is attached"))
	h := setupHandler(mutator)

	token := proposeToken(t, h)

	rec := httptest.NewRecorder()
	h.Confirm(rec, confirmRequest(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response api.ConfirmResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Contains(t, response.Message, "VolumeInUse")
}

func TestConfirmUnknownToken(t *testing.T) {
	h := setupHandler(new(mockMutator))

	rec := httptest.NewRecorder()
	h.Confirm(rec, confirmRequest("not-a-token"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var response api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, string(domain.KindInvalidToken), response.Kind)
}

func proposeToken(t *testing.T, h *Handler) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/remediations", proposeBody(t, volumeFinding()))
	rec := httptest.NewRecorder()
	h.Propose(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var response api.ProposeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	return response.Token
}

func confirmRequest(token string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/remediations/"+token+"/confirm", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("token", token)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}
