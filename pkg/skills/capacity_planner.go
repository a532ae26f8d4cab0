package skills

import (
	"context"
	"fmt"
	"strconv"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// odcrUtilizationThreshold: a reservation with less than half of its
// capacity in use counts as underutilized.
const odcrUtilizationThreshold = 0.5

// CapacityPlanner flags on-demand capacity reservations whose committed
// capacity sits unused.
type CapacityPlanner struct {
	gw gateway.CloudGateway
}

func NewCapacityPlanner(gw gateway.CloudGateway) *CapacityPlanner {
	return &CapacityPlanner{gw: gw}
}

func (s *CapacityPlanner) Describe() Descriptor {
	return Descriptor{
		ID:          "capacity-planner",
		Name:        "Capacity Planner",
		Description: "Detect underutilized on-demand capacity reservations",
	}
}

func (s *CapacityPlanner) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "capacity-planner", scope, []scanner{
		{name: "odcr", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanReservations(ctx, region, scope.Credentials)
		}},
	})
}

func (s *CapacityPlanner) scanReservations(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	reservations, err := s.gw.ListResources(ctx, domain.ResourceCapacityReservation, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, cr := range reservations {
		if cr.State != "active" {
			continue
		}
		total, _ := strconv.Atoi(cr.Attrs["total_count"])
		available, _ := strconv.Atoi(cr.Attrs["available_count"])
		if total == 0 {
			continue
		}
		unusedRatio := float64(available) / float64(total)
		if unusedRatio <= odcrUtilizationThreshold {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:      "capacity-planner",
			Title:      fmt.Sprintf("Underutilized ODCR: %s", cr.ID),
			Severity:   domain.SeverityMedium,
			Region:     region,
			ResourceID: cr.ID,
			RecommendedAction: fmt.Sprintf(
				"Cancel or downsize: %d of %d %s instances unused",
				available, total, cr.Attrs["instance_type"],
			),
			Metadata: map[string]string{
				"instance_type":   cr.Attrs["instance_type"],
				"total_count":     cr.Attrs["total_count"],
				"available_count": cr.Attrs["available_count"],
			},
		})
	}
	return findings, nil
}
