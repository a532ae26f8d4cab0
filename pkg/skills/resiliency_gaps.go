package skills

import (
	"context"
	"fmt"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// ResiliencyGaps checks for single points of failure and missing
// operational safety nets.
type ResiliencyGaps struct {
	gw gateway.CloudGateway
}

func NewResiliencyGaps(gw gateway.CloudGateway) *ResiliencyGaps {
	return &ResiliencyGaps{gw: gw}
}

func (s *ResiliencyGaps) Describe() Descriptor {
	return Descriptor{
		ID:          "resiliency-gaps",
		Name:        "Resiliency Gaps",
		Description: "Detect single-AZ databases, missing backups, missing flow logs and single-target load balancers",
	}
}

func (s *ResiliencyGaps) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "resiliency-gaps", scope, []scanner{
		{name: "rds", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanDatabases(ctx, region, scope.Credentials)
		}},
		{name: "vpc", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanVPCs(ctx, region, scope.Credentials)
		}},
		{name: "elb", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanLoadBalancers(ctx, region, scope.Credentials)
		}},
	})
}

func (s *ResiliencyGaps) scanDatabases(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	dbs, err := s.gw.ListResources(ctx, domain.ResourceDBInstance, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, db := range dbs {
		if db.Attrs["multi_az"] == "false" {
			findings = append(findings, domain.Finding{
				Skill:             "resiliency-gaps",
				Title:             fmt.Sprintf("Single-AZ RDS: %s", db.ID),
				Severity:          domain.SeverityMedium,
				Region:            region,
				ResourceID:        db.ID,
				RecommendedAction: "Enable Multi-AZ deployment",
				Metadata:          map[string]string{"arn": db.Attrs["arn"]},
			})
		}
		if db.Attrs["backup_retention"] == "0" {
			findings = append(findings, domain.Finding{
				Skill:             "resiliency-gaps",
				Title:             fmt.Sprintf("No backups: RDS %s", db.ID),
				Severity:          domain.SeverityHigh,
				Region:            region,
				ResourceID:        db.ID,
				RecommendedAction: "Enable automated backups",
				Metadata:          map[string]string{"arn": db.Attrs["arn"]},
			})
		}
	}
	return findings, nil
}

func (s *ResiliencyGaps) scanVPCs(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	vpcs, err := s.gw.ListResources(ctx, domain.ResourceVPC, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, vpc := range vpcs {
		if vpc.Attrs["flow_logs"] == "true" {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "resiliency-gaps",
			Title:             fmt.Sprintf("No VPC Flow Logs: %s", vpc.ID),
			Severity:          domain.SeverityMedium,
			Region:            region,
			ResourceID:        vpc.ID,
			RecommendedAction: "Enable VPC flow logs to CloudWatch Logs",
		})
	}
	return findings, nil
}

func (s *ResiliencyGaps) scanLoadBalancers(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	lbs, err := s.gw.ListResources(ctx, domain.ResourceLoadBalancer, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, lb := range lbs {
		if lb.State != "active" {
			continue
		}
		switch lb.Attrs["min_targets"] {
		case "0", "1":
			findings = append(findings, domain.Finding{
				Skill:             "resiliency-gaps",
				Title:             fmt.Sprintf("Single-target ELB: %s", lb.ID),
				Severity:          domain.SeverityMedium,
				Region:            region,
				ResourceID:        lb.ID,
				RecommendedAction: "Register at least two targets across availability zones",
				Metadata:          map[string]string{"min_targets": lb.Attrs["min_targets"]},
			})
		}
	}
	return findings, nil
}
