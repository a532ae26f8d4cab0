package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func TestReporterOrdersFindingsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	err := reporter.Handle([]domain.SkillResult{{
		Skill: "security-posture",
		Findings: []domain.Finding{
			{Skill: "security-posture", Severity: domain.SeverityLow, Title: "Old access key: alice"},
			{Skill: "security-posture", Severity: domain.SeverityCritical, Title: "Open port 22 to 0.0.0.0/0: sg-1", Region: "us-east-1"},
		},
		Errors: []string{"iam: throttled"},
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SKILL")
	assert.Contains(t, out, "[CRITICAL] Open port 22 to 0.0.0.0/0: sg-1 (us-east-1)")
	assert.Less(t, strings.Index(out, "[CRITICAL]"), strings.Index(out, "[LOW]"))
	assert.Contains(t, out, "[ERROR] security-posture: iam: throttled")
}

func TestReporterImpactTotals(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	err := reporter.Handle([]domain.SkillResult{{
		Skill: "zombie-hunter",
		Findings: []domain.Finding{
			{Skill: "zombie-hunter", Severity: domain.SeverityLow, Title: "Unused EIP: 203.0.113.10", MonthlyImpact: 3.60},
		},
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "$3.60")
	assert.Contains(t, out, "TOTAL")
}
