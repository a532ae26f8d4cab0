package chat

import (
	"fmt"
	"strings"

	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/remediation"
)

// maxFindingsPerSeverity caps how many findings per severity band go into
// the grounding context so large scans do not blow the prompt budget.
const maxFindingsPerSeverity = 10

// buildContext renders the caller's current findings into the grounding
// block the backend sees. Only findings passed in ever appear; the assistant
// has no other source of scan data to draw on.
func buildContext(findings []domain.Finding, skillsRun, skillsNotRun []string) string {
	var b strings.Builder

	if len(skillsRun) > 0 {
		fmt.Fprintf(&b, "Skills already run: %s\n", strings.Join(skillsRun, ", "))
	}
	if len(skillsNotRun) > 0 {
		fmt.Fprintf(&b, "Skills NOT yet run: %s\n", strings.Join(skillsNotRun, ", "))
		b.WriteString("IMPORTANT: Only mention the specific skill relevant to what the user asked about.\n")
	}
	b.WriteString("\n")

	if len(findings) == 0 {
		b.WriteString("No scan findings available yet.")
		return b.String()
	}

	fmt.Fprintf(&b, "Scan findings (%d total):\n", len(findings))

	bySeverity := map[domain.Severity][]domain.Finding{}
	for _, f := range findings {
		bySeverity[f.Severity] = append(bySeverity[f.Severity], f)
	}

	order := []domain.Severity{
		domain.SeverityCritical,
		domain.SeverityHigh,
		domain.SeverityMedium,
		domain.SeverityLow,
		domain.SeverityInfo,
	}
	for _, sev := range order {
		items := bySeverity[sev]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", strings.ToUpper(string(sev)), len(items))
		for i, f := range items {
			if i >= maxFindingsPerSeverity {
				break
			}
			impact := ""
			if f.MonthlyImpact > 0 {
				impact = fmt.Sprintf("$%.0f/mo", f.MonthlyImpact)
			}
			fix := "[manual fix only]"
			if remediation.HasRemediation(f) {
				fix = "[HAS FIX IT BUTTON]"
			}
			fmt.Fprintf(&b, "  - %s | %s | %s | %s | %s\n", f.Title, f.Region, f.ResourceID, impact, fix)
			if f.RecommendedAction != "" {
				fmt.Fprintf(&b, "    Action: %s\n", f.RecommendedAction)
			}
		}
	}

	var totalImpact float64
	var criticalCount int
	for _, f := range findings {
		totalImpact += f.MonthlyImpact
		if f.Severity == domain.SeverityCritical {
			criticalCount++
		}
	}
	fmt.Fprintf(&b, "\nSummary: %d findings, %d critical, $%.0f/mo total impact",
		len(findings), criticalCount, totalImpact)
	return b.String()
}
