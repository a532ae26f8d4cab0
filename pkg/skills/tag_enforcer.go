package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// mandatoryTags is the governance tag set every billable resource must
// carry.
var mandatoryTags = []string{"Environment", "Team", "Owner"}

// TagEnforcer flags EC2 instances, RDS instances, S3 buckets and Lambda
// functions missing mandatory tags.
type TagEnforcer struct {
	gw gateway.CloudGateway
}

func NewTagEnforcer(gw gateway.CloudGateway) *TagEnforcer {
	return &TagEnforcer{gw: gw}
}

func (s *TagEnforcer) Describe() Descriptor {
	return Descriptor{
		ID:          "tag-enforcer",
		Name:        "Tag Enforcer",
		Description: "Detect resources missing mandatory governance tags",
	}
}

func (s *TagEnforcer) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "tag-enforcer", scope, []scanner{
		{name: "ec2", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanKind(ctx, domain.ResourceInstance, "Untagged EC2", region, scope.Credentials)
		}},
		{name: "rds", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanKind(ctx, domain.ResourceDBInstance, "Untagged RDS", region, scope.Credentials)
		}},
		{name: "lambda", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanKind(ctx, domain.ResourceFunction, "Untagged Lambda", region, scope.Credentials)
		}},
		{name: "s3", global: true, fn: func(ctx context.Context, _ string) ([]domain.Finding, error) {
			return s.scanKind(ctx, domain.ResourceBucket, "Untagged S3", "", scope.Credentials)
		}},
	})
}

func (s *TagEnforcer) scanKind(
	ctx context.Context,
	kind domain.ResourceKind,
	titlePrefix, region string,
	creds domain.Credentials,
) ([]domain.Finding, error) {
	resources, err := s.gw.ListResources(ctx, kind, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, r := range resources {
		if kind == domain.ResourceInstance && r.State == "terminated" {
			continue
		}
		var missing []string
		for _, key := range mandatoryTags {
			if _, ok := r.Tags[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) == 0 {
			continue
		}
		metadata := map[string]string{
			"missing_tags": strings.Join(missing, ","),
		}
		if arn := r.Attrs["arn"]; arn != "" {
			metadata["arn"] = arn
		}
		findings = append(findings, domain.Finding{
			Skill:             "tag-enforcer",
			Title:             fmt.Sprintf("%s: %s", titlePrefix, r.ID),
			Severity:          domain.SeverityLow,
			Region:            region,
			ResourceID:        r.ID,
			RecommendedAction: fmt.Sprintf("Apply missing tags: %s", strings.Join(missing, ", ")),
			Metadata:          metadata,
		})
	}
	return findings, nil
}
