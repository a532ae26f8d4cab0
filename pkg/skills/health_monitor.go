package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// HealthMonitor surfaces provider health events, service disruptions and
// Trusted Advisor flags. Both sources sit behind a support-plan paywall;
// a refused subscription degrades to an informational finding rather than
// a failed scan.
type HealthMonitor struct {
	gw gateway.CloudGateway
}

func NewHealthMonitor(gw gateway.CloudGateway) *HealthMonitor {
	return &HealthMonitor{gw: gw}
}

func (s *HealthMonitor) Describe() Descriptor {
	return Descriptor{
		ID:          "health-monitor",
		Name:        "Health Monitor",
		Description: "Monitor provider health events, service disruptions and Trusted Advisor flags",
	}
}

func (s *HealthMonitor) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "health-monitor", scope, []scanner{
		{name: "health_events", global: true, fn: func(ctx context.Context, _ string) ([]domain.Finding, error) {
			return s.scanHealthEvents(ctx, scope)
		}},
		{name: "advisor_checks", global: true, fn: func(ctx context.Context, _ string) ([]domain.Finding, error) {
			return s.scanAdvisorChecks(ctx, scope.Credentials)
		}},
	})
}

func (s *HealthMonitor) scanHealthEvents(ctx context.Context, scope domain.Scope) ([]domain.Finding, error) {
	events, err := s.gw.ListResources(ctx, domain.ResourceHealthEvent, "", scope.Credentials)
	if err != nil {
		if domain.KindOf(err) == domain.KindUpstreamUnavailable {
			return []domain.Finding{{
				Skill:             "health-monitor",
				Title:             "Health API requires Business/Enterprise Support",
				Severity:          domain.SeverityInfo,
				Region:            "global",
				RecommendedAction: "Upgrade the support plan for proactive health monitoring",
			}}, nil
		}
		return nil, err
	}

	inScope := make(map[string]bool, len(scope.Regions))
	for _, r := range scope.Regions {
		inScope[r] = true
	}

	var findings []domain.Finding
	for _, ev := range events {
		if ev.Region != "" && ev.Region != "global" && !inScope[ev.Region] {
			continue
		}
		category := ev.Attrs["category"]
		service := ev.Attrs["service"]

		severity := domain.SeverityInfo
		prefix := "Health event"
		action := "Plan for the upcoming change"
		switch category {
		case "issue":
			severity = domain.SeverityMedium
			if ev.State == "open" {
				severity = domain.SeverityHigh
			}
			prefix = "Service issue"
			action = "Review event details in the provider health dashboard"
		case "scheduledChange":
			severity = domain.SeverityMedium
			prefix = "Scheduled change"
		case "accountNotification":
			severity = domain.SeverityLow
			prefix = "Notification"
		}

		resourceID := service
		if affected := ev.Attrs["affected"]; affected != "" {
			parts := strings.Split(affected, ",")
			if len(parts) > 3 {
				parts = parts[:3]
			}
			resourceID = strings.Join(parts, ", ")
		}

		findings = append(findings, domain.Finding{
			Skill:             "health-monitor",
			Title:             fmt.Sprintf("%s: %s (%s)", prefix, service, ev.State),
			Severity:          severity,
			Region:            ev.Region,
			ResourceID:        resourceID,
			RecommendedAction: action,
			Metadata: map[string]string{
				"event_arn":   ev.ID,
				"service":     service,
				"category":    category,
				"status":      ev.State,
				"description": ev.Attrs["description"],
			},
		})
	}
	return findings, nil
}

func (s *HealthMonitor) scanAdvisorChecks(ctx context.Context, creds domain.Credentials) ([]domain.Finding, error) {
	checks, err := s.gw.ListResources(ctx, domain.ResourceAdvisorCheck, "", creds)
	if err != nil {
		// Trusted Advisor is silent without a support plan; the health
		// event scanner already reports the missing subscription.
		if domain.KindOf(err) == domain.KindUpstreamUnavailable {
			return nil, nil
		}
		return nil, err
	}

	var findings []domain.Finding
	for _, check := range checks {
		if check.State != "warning" && check.State != "error" {
			continue
		}
		if check.Attrs["flagged_count"] == "0" {
			continue
		}
		severity := domain.SeverityMedium
		if check.State == "error" {
			severity = domain.SeverityHigh
		}
		findings = append(findings, domain.Finding{
			Skill:             "health-monitor",
			Title:             fmt.Sprintf("Trusted Advisor: %s", check.Attrs["name"]),
			Severity:          severity,
			Region:            "global",
			ResourceID:        check.ID,
			RecommendedAction: "Review the check in the Trusted Advisor console",
			Metadata: map[string]string{
				"check_id":      check.ID,
				"category":      check.Attrs["category"],
				"status":        check.State,
				"flagged_count": check.Attrs["flagged_count"],
			},
		})
	}
	return findings, nil
}
