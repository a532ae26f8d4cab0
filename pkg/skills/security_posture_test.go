package skills

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func TestSecurityPostureScan(t *testing.T) {
	gw := new(mockGateway)
	scope := domain.Scope{Regions: []string{"eu-west-1"}}

	gw.On("ListResources", mock.Anything, domain.ResourceSecurityGroup, "eu-west-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "sg-open", Attrs: map[string]string{"open_ports": "22,8080", "group_name": "web"}},
			{ID: "sg-closed", Attrs: map[string]string{"open_ports": ""}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceBucket, "", mock.Anything).Return(
		[]domain.Resource{
			{ID: "public-bucket", Attrs: map[string]string{"public_access_blocked": "false"}},
			{ID: "private-bucket", Attrs: map[string]string{"public_access_blocked": "true"}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceAccessKey, "", mock.Anything).Return(
		[]domain.Resource{
			{
				ID:        "AKIAOLD",
				State:     "Active",
				CreatedAt: time.Now().Add(-120 * 24 * time.Hour),
				Attrs:     map[string]string{"user": "alice"},
			},
			{
				ID:        "AKIAFRESH",
				State:     "Active",
				CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
				Attrs:     map[string]string{"user": "bob"},
			},
			{
				ID:        "AKIAINACTIVE",
				State:     "Inactive",
				CreatedAt: time.Now().Add(-400 * 24 * time.Hour),
				Attrs:     map[string]string{"user": "carol"},
			},
		}, nil)

	result := NewSecurityPosture(gw).Scan(context.Background(), scope)

	assert.Empty(t, result.Errors)
	assert.Len(t, result.Findings, 4)

	// Sensitive port 22 is critical, port 8080 is high.
	assert.Equal(t, "Open port 22 to 0.0.0.0/0: sg-open", result.Findings[0].Title)
	assert.Equal(t, domain.SeverityCritical, result.Findings[0].Severity)
	assert.Equal(t, "Open port 8080 to 0.0.0.0/0: sg-open", result.Findings[1].Title)
	assert.Equal(t, domain.SeverityHigh, result.Findings[1].Severity)

	assert.Equal(t, "Public S3 bucket: public-bucket", result.Findings[2].Title)
	assert.Equal(t, 1, result.CriticalCount())

	stale := result.Findings[3]
	assert.Contains(t, stale.Title, "Old access key: alice")
	assert.Equal(t, "alice", stale.Metadata["user"])
	gw.AssertExpectations(t)
}
