package domain

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for sorting, critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Finding is one detected issue produced by a skill scan. Findings are
// created once during a scan and never mutated afterwards; Metadata carries
// skill-specific context such as missing tag keys or upgrade targets.
type Finding struct {
	Skill             string            `json:"skill"`
	Severity          Severity          `json:"severity"`
	Title             string            `json:"title"`
	Region            string            `json:"region,omitempty"`
	ResourceID        string            `json:"resource_id,omitempty"`
	AccountID         string            `json:"account_id,omitempty"`
	MonthlyImpact     float64           `json:"monthly_impact,omitempty"`
	RecommendedAction string            `json:"recommended_action,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// SkillResult holds everything one skill produced in a single scan.
// Per-resource failures land in Errors instead of aborting the scan.
type SkillResult struct {
	Skill    string        `json:"skill"`
	Findings []Finding     `json:"findings"`
	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration_seconds,omitempty"`
}

func (r SkillResult) TotalImpact() float64 {
	var total float64
	for _, f := range r.Findings {
		total += f.MonthlyImpact
	}
	return total
}

func (r SkillResult) CriticalCount() int {
	var count int
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			count++
		}
	}
	return count
}

// Clone returns a deep copy so stored results are never aliased by callers.
func (r SkillResult) Clone() SkillResult {
	out := SkillResult{
		Skill:    r.Skill,
		Duration: r.Duration,
	}
	if r.Findings != nil {
		out.Findings = make([]Finding, len(r.Findings))
		for i, f := range r.Findings {
			out.Findings[i] = f
			if f.Metadata != nil {
				md := make(map[string]string, len(f.Metadata))
				for k, v := range f.Metadata {
					md[k] = v
				}
				out.Findings[i].Metadata = md
			}
		}
	}
	if r.Errors != nil {
		out.Errors = append([]string(nil), r.Errors...)
	}
	return out
}
