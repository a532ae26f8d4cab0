package skills

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

const staleKeyAgeDays = 90

// sensitivePorts are flagged critical when open to the world; anything
// else open to 0.0.0.0/0 is high.
var sensitivePorts = map[string]bool{
	"22":    true,
	"3389":  true,
	"3306":  true,
	"5432":  true,
	"1433":  true,
	"27017": true,
	"6379":  true,
}

// SecurityPosture checks for world-open ingress, public buckets and stale
// IAM access keys.
type SecurityPosture struct {
	gw gateway.CloudGateway
}

func NewSecurityPosture(gw gateway.CloudGateway) *SecurityPosture {
	return &SecurityPosture{gw: gw}
}

func (s *SecurityPosture) Describe() Descriptor {
	return Descriptor{
		ID:          "security-posture",
		Name:        "Security Posture",
		Description: "Detect open security groups, public S3 buckets and old IAM access keys",
	}
}

func (s *SecurityPosture) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "security-posture", scope, []scanner{
		{name: "security_groups", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanSecurityGroups(ctx, region, scope.Credentials)
		}},
		{name: "buckets", global: true, fn: func(ctx context.Context, _ string) ([]domain.Finding, error) {
			return s.scanBuckets(ctx, scope.Credentials)
		}},
		{name: "access_keys", global: true, fn: func(ctx context.Context, _ string) ([]domain.Finding, error) {
			return s.scanAccessKeys(ctx, scope.Credentials)
		}},
	})
}

func (s *SecurityPosture) scanSecurityGroups(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	groups, err := s.gw.ListResources(ctx, domain.ResourceSecurityGroup, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, sg := range groups {
		openPorts := sg.Attrs["open_ports"]
		if openPorts == "" {
			continue
		}
		for _, port := range strings.Split(openPorts, ",") {
			severity := domain.SeverityHigh
			if sensitivePorts[port] {
				severity = domain.SeverityCritical
			}
			findings = append(findings, domain.Finding{
				Skill:             "security-posture",
				Title:             fmt.Sprintf("Open port %s to 0.0.0.0/0: %s", port, sg.ID),
				Severity:          severity,
				Region:            region,
				ResourceID:        sg.ID,
				RecommendedAction: "Restrict the ingress rule to known CIDR ranges",
				Metadata: map[string]string{
					"port":       port,
					"group_name": sg.Attrs["group_name"],
				},
			})
		}
	}
	return findings, nil
}

func (s *SecurityPosture) scanBuckets(ctx context.Context, creds domain.Credentials) ([]domain.Finding, error) {
	buckets, err := s.gw.ListResources(ctx, domain.ResourceBucket, "", creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, b := range buckets {
		if b.Attrs["public_access_blocked"] == "true" {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "security-posture",
			Title:             fmt.Sprintf("Public S3 bucket: %s", b.ID),
			Severity:          domain.SeverityHigh,
			ResourceID:        b.ID,
			RecommendedAction: "Enable Block Public Access on the bucket",
		})
	}
	return findings, nil
}

func (s *SecurityPosture) scanAccessKeys(ctx context.Context, creds domain.Credentials) ([]domain.Finding, error) {
	keys, err := s.gw.ListResources(ctx, domain.ResourceAccessKey, "", creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, k := range keys {
		if k.State != "Active" || k.CreatedAt.IsZero() {
			continue
		}
		ageDays := int(time.Since(k.CreatedAt).Hours() / 24)
		if ageDays < staleKeyAgeDays {
			continue
		}
		user := k.Attrs["user"]
		findings = append(findings, domain.Finding{
			Skill:             "security-posture",
			Title:             fmt.Sprintf("Old access key: %s (%d days)", user, ageDays),
			Severity:          domain.SeverityMedium,
			ResourceID:        k.ID,
			RecommendedAction: "Rotate the key, then deactivate the old one",
			Metadata:          map[string]string{"user": user},
		})
	}
	return findings, nil
}
