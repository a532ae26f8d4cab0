package skills

import (
	"context"
	"fmt"
	"strconv"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// quotaAlertThreshold is the usage percentage below which a quota is not
// worth reporting.
const quotaAlertThreshold = 70.0

// QuotaGuardian flags service quotas approaching their limits before the
// provider starts throttling.
type QuotaGuardian struct {
	gw gateway.CloudGateway
}

func NewQuotaGuardian(gw gateway.CloudGateway) *QuotaGuardian {
	return &QuotaGuardian{gw: gw}
}

func (s *QuotaGuardian) Describe() Descriptor {
	return Descriptor{
		ID:          "quota-guardian",
		Name:        "Quota Guardian",
		Description: "Monitor service quotas approaching limits and flag resources at risk of throttling",
	}
}

func (s *QuotaGuardian) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "quota-guardian", scope, []scanner{
		{name: "quotas", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanQuotas(ctx, region, scope.Credentials)
		}},
	})
}

func (s *QuotaGuardian) scanQuotas(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	quotas, err := s.gw.ListResources(ctx, domain.ResourceServiceQuota, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, q := range quotas {
		usagePct, err := strconv.ParseFloat(q.Attrs["usage_pct"], 64)
		if err != nil || usagePct < quotaAlertThreshold {
			continue
		}

		severity := domain.SeverityMedium
		action := "Monitor usage, the quota is approaching its limit"
		switch {
		case usagePct >= 90:
			severity = domain.SeverityCritical
			action = fmt.Sprintf("Request a quota increase for %s", q.Attrs["quota_name"])
		case usagePct >= 80:
			severity = domain.SeverityHigh
			action = fmt.Sprintf("Request a quota increase for %s", q.Attrs["quota_name"])
		}

		findings = append(findings, domain.Finding{
			Skill:             "quota-guardian",
			Title:             fmt.Sprintf("Quota %.0f%%: %s", usagePct, q.Attrs["quota_name"]),
			Severity:          severity,
			Region:            region,
			ResourceID:        q.ID,
			RecommendedAction: action,
			Metadata: map[string]string{
				"service":    q.Attrs["service"],
				"quota_code": q.ID,
				"limit":      q.Attrs["limit"],
				"usage_pct":  q.Attrs["usage_pct"],
			},
		})
	}
	return findings, nil
}
