package skills

import (
	"context"
	"fmt"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

const (
	costWindowDays     = 14
	spikeRatio         = 1.5 // day costs 50% above the trailing average
	minSpikeDollars    = 10
	weekGrowthRatio    = 1.3
	minWeeklyIncrement = 50
)

// CostAnomaly compares recent spend against the trailing baseline and
// flags day spikes and week-over-week growth.
type CostAnomaly struct {
	gw gateway.CloudGateway
}

func NewCostAnomaly(gw gateway.CloudGateway) *CostAnomaly {
	return &CostAnomaly{gw: gw}
}

func (s *CostAnomaly) Describe() Descriptor {
	return Descriptor{
		ID:          "cost-anomaly",
		Name:        "Cost Anomaly",
		Description: "Detect spend spikes against the trailing two-week baseline",
	}
}

func (s *CostAnomaly) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "cost-anomaly", scope, []scanner{
		{name: "usage", global: true, fn: func(ctx context.Context, _ string) ([]domain.Finding, error) {
			return s.scanUsage(ctx, scope.Credentials)
		}},
	})
}

func (s *CostAnomaly) scanUsage(ctx context.Context, creds domain.Credentials) ([]domain.Finding, error) {
	points, err := s.gw.GetUsage(ctx, costWindowDays, creds)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, nil
	}

	var findings []domain.Finding

	// Day spikes against the average of the preceding days.
	var runningTotal float64
	for i, p := range points {
		if i == 0 {
			runningTotal = p.Amount
			continue
		}
		baseline := runningTotal / float64(i)
		if baseline > 0 && p.Amount > baseline*spikeRatio && p.Amount-baseline >= minSpikeDollars {
			severity := domain.SeverityMedium
			if p.Amount > baseline*3 {
				severity = domain.SeverityHigh
			}
			findings = append(findings, domain.Finding{
				Skill:             "cost-anomaly",
				Title:             fmt.Sprintf("Cost spike on %s: $%.0f vs $%.0f baseline", p.Date.Format("2006-01-02"), p.Amount, baseline),
				Severity:          severity,
				MonthlyImpact:     (p.Amount - baseline) * 30,
				RecommendedAction: "Review cost allocation for the spike day",
			})
		}
		runningTotal += p.Amount
	}

	// Week over week.
	if len(points) >= costWindowDays {
		var prior, recent float64
		half := len(points) / 2
		for _, p := range points[:half] {
			prior += p.Amount
		}
		for _, p := range points[half:] {
			recent += p.Amount
		}
		if prior > 0 && recent > prior*weekGrowthRatio && recent-prior >= minWeeklyIncrement {
			findings = append(findings, domain.Finding{
				Skill:             "cost-anomaly",
				Title:             fmt.Sprintf("Weekly spend up %.0f%%: $%.0f vs $%.0f", (recent/prior-1)*100, recent, prior),
				Severity:          domain.SeverityHigh,
				MonthlyImpact:     (recent - prior) * 4,
				RecommendedAction: "Investigate services driving the increase",
			})
		}
	}
	return findings, nil
}
