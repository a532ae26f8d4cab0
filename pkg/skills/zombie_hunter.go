package skills

import (
	"context"
	"fmt"
	"strconv"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/pricing"
)

const idleCPUThreshold = 2.0 // percent, 7-day average

// ZombieHunter finds resources that cost money without doing work:
// unattached volumes, unassociated addresses, idle NAT gateways, and
// idle compute/database instances.
type ZombieHunter struct {
	gw    gateway.CloudGateway
	rates pricing.Store
}

func NewZombieHunter(gw gateway.CloudGateway) *ZombieHunter {
	return &ZombieHunter{gw: gw, rates: pricing.Default()}
}

func (s *ZombieHunter) Describe() Descriptor {
	return Descriptor{
		ID:          "zombie-hunter",
		Name:        "Zombie Hunter",
		Description: "Detect wasted resources: idle EC2/RDS, unattached EBS, unused EIPs and NAT gateways",
	}
}

func (s *ZombieHunter) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "zombie-hunter", scope, []scanner{
		{name: "ebs", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanVolumes(ctx, region, scope.Credentials)
		}},
		{name: "eip", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanAddresses(ctx, region, scope.Credentials)
		}},
		{name: "nat", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanNATGateways(ctx, region, scope.Credentials)
		}},
		{name: "idle_ec2", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanIdleInstances(ctx, region, scope.Credentials)
		}},
		{name: "idle_rds", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanIdleDBInstances(ctx, region, scope.Credentials)
		}},
	})
}

func (s *ZombieHunter) scanVolumes(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	volumes, err := s.gw.ListResources(ctx, domain.ResourceVolume, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, v := range volumes {
		if v.State != "available" {
			continue
		}
		sizeGB, _ := strconv.Atoi(v.Attrs["size_gb"])
		findings = append(findings, domain.Finding{
			Skill:             "zombie-hunter",
			Title:             fmt.Sprintf("Unattached EBS: %s", v.ID),
			Severity:          domain.SeverityLow,
			Region:            region,
			ResourceID:        v.ID,
			MonthlyImpact:     float64(sizeGB) * s.rates.MonthlyRate(pricing.SKUEBSPerGB).PerUnit,
			RecommendedAction: "Delete or snapshot then delete",
			Metadata: map[string]string{
				"size_gb":     v.Attrs["size_gb"],
				"volume_type": v.Attrs["volume_type"],
			},
		})
	}
	return findings, nil
}

func (s *ZombieHunter) scanAddresses(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	addresses, err := s.gw.ListResources(ctx, domain.ResourceAddress, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, a := range addresses {
		if a.State != "unassociated" {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "zombie-hunter",
			Title:             fmt.Sprintf("Unused EIP: %s", a.Attrs["public_ip"]),
			Severity:          domain.SeverityLow,
			Region:            region,
			ResourceID:        a.ID,
			MonthlyImpact:     s.rates.MonthlyRate(pricing.SKUElasticIP).PerUnit,
			RecommendedAction: "Release the address",
		})
	}
	return findings, nil
}

func (s *ZombieHunter) scanNATGateways(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	gateways, err := s.gw.ListResources(ctx, domain.ResourceNATGateway, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, gw := range gateways {
		if gw.State != "available" {
			continue
		}
		// Only flag gateways with observed zero egress; missing metrics
		// never produce a finding.
		if gw.Attrs["bytes_out_7d"] != "0" {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "zombie-hunter",
			Title:             fmt.Sprintf("Unused NAT GW: %s", gw.ID),
			Severity:          domain.SeverityMedium,
			Region:            region,
			ResourceID:        gw.ID,
			MonthlyImpact:     s.rates.MonthlyRate(pricing.SKUNATGateway).PerUnit,
			RecommendedAction: "Delete the NAT gateway",
			Metadata:          map[string]string{"vpc_id": gw.Attrs["vpc_id"]},
		})
	}
	return findings, nil
}

func (s *ZombieHunter) scanIdleInstances(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	instances, err := s.gw.ListResources(ctx, domain.ResourceInstance, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, inst := range instances {
		if inst.State != "running" {
			continue
		}
		raw, ok := inst.Attrs["cpu_avg_7d"]
		if !ok {
			continue
		}
		cpu, err := strconv.ParseFloat(raw, 64)
		if err != nil || cpu >= idleCPUThreshold {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "zombie-hunter",
			Title:             fmt.Sprintf("Idle EC2: %s", inst.ID),
			Severity:          domain.SeverityMedium,
			Region:            region,
			ResourceID:        inst.ID,
			RecommendedAction: "Stop the instance or downsize",
			Metadata: map[string]string{
				"cpu_avg_7d":    raw,
				"instance_type": inst.Attrs["instance_type"],
			},
		})
	}
	return findings, nil
}

func (s *ZombieHunter) scanIdleDBInstances(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	dbs, err := s.gw.ListResources(ctx, domain.ResourceDBInstance, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, db := range dbs {
		if db.State != "available" || db.Attrs["connections_7d"] != "0" {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "zombie-hunter",
			Title:             fmt.Sprintf("Idle RDS: %s", db.ID),
			Severity:          domain.SeverityMedium,
			Region:            region,
			ResourceID:        db.ID,
			RecommendedAction: "Stop the instance; no connections in 7 days",
			Metadata:          map[string]string{"instance_class": db.Attrs["instance_class"]},
		})
	}
	return findings, nil
}
