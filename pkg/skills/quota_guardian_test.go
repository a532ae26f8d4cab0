package skills

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func TestQuotaGuardianScan(t *testing.T) {
	gw := new(mockGateway)
	scope := domain.Scope{Regions: []string{"eu-west-1"}}

	gw.On("ListResources", mock.Anything, domain.ResourceServiceQuota, "eu-west-1", mock.Anything).Return(
		[]domain.Resource{
			{
				ID:     "L-F678F1CE",
				Region: "eu-west-1",
				Attrs: map[string]string{
					"quota_name": "VPCs per Region",
					"service":    "vpc",
					"limit":      "5",
					"usage_pct":  "95.0",
				},
			},
			{
				ID:     "L-0263D0A3",
				Region: "eu-west-1",
				Attrs: map[string]string{
					"quota_name": "EC2-VPC Elastic IPs",
					"service":    "ec2",
					"limit":      "5",
					"usage_pct":  "82.5",
				},
			},
			{
				ID:     "L-7B6409FD",
				Region: "eu-west-1",
				Attrs: map[string]string{
					"quota_name": "DB instances",
					"service":    "rds",
					"limit":      "40",
					"usage_pct":  "72.0",
				},
			},
			{
				// Below the alert threshold, never reported.
				ID:     "L-DC2B2D3D",
				Region: "eu-west-1",
				Attrs: map[string]string{
					"quota_name": "Buckets",
					"service":    "s3",
					"limit":      "100",
					"usage_pct":  "12.0",
				},
			},
		}, nil)

	result := NewQuotaGuardian(gw).Scan(context.Background(), scope)

	assert.Empty(t, result.Errors)
	assert.Len(t, result.Findings, 3)

	critical := result.Findings[0]
	assert.Equal(t, "Quota 95%: VPCs per Region", critical.Title)
	assert.Equal(t, domain.SeverityCritical, critical.Severity)
	assert.Equal(t, "Request a quota increase for VPCs per Region", critical.RecommendedAction)

	high := result.Findings[1]
	assert.Equal(t, domain.SeverityHigh, high.Severity)
	assert.Equal(t, "L-0263D0A3", high.Metadata["quota_code"])

	medium := result.Findings[2]
	assert.Equal(t, "Quota 72%: DB instances", medium.Title)
	assert.Equal(t, domain.SeverityMedium, medium.Severity)
	assert.Equal(t, "Monitor usage, the quota is approaching its limit", medium.RecommendedAction)
	gw.AssertExpectations(t)
}
