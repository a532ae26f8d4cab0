package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func TestBuildContextEmpty(t *testing.T) {
	out := buildContext(nil, nil, nil)
	assert.Contains(t, out, "No scan findings available yet.")
}

func TestBuildContextGroupsBySeverity(t *testing.T) {
	findings := []domain.Finding{
		{
			Skill: "zombie-hunter", Severity: domain.SeverityLow,
			Title: "Unattached EBS: vol-123", Region: "us-east-1",
			ResourceID: "vol-123", MonthlyImpact: 8,
			RecommendedAction: "Delete or snapshot then delete",
		},
		{
			Skill: "security-posture", Severity: domain.SeverityCritical,
			Title: "Open port 22 to 0.0.0.0/0: sg-1", Region: "us-east-1",
			ResourceID: "sg-1",
		},
	}

	out := buildContext(findings, []string{"zombie-hunter", "security-posture"}, nil)

	assert.Contains(t, out, "Scan findings (2 total):")
	// Critical band renders before low.
	critIdx := strings.Index(out, "CRITICAL (1):")
	lowIdx := strings.Index(out, "LOW (1):")
	assert.True(t, critIdx >= 0 && lowIdx > critIdx)

	assert.Contains(t, out, "Open port 22 to 0.0.0.0/0: sg-1")
	assert.Contains(t, out, "[HAS FIX IT BUTTON]")
	assert.Contains(t, out, "$8/mo")
	assert.Contains(t, out, "Action: Delete or snapshot then delete")
	assert.Contains(t, out, "Summary: 2 findings, 1 critical, $8/mo total impact")
}
