// Package aws implements the gateway contracts against AWS. All provider
// API shapes stay in this package; the core sees provider-neutral records.
package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

type Gateway struct {
	base     awssdk.Config
	roleName string
}

type Settings struct {
	// RoleName is the cross-account role assumed into member accounts.
	RoleName string
}

func NewGateway(base awssdk.Config, settings Settings) *Gateway {
	roleName := settings.RoleName
	if roleName == "" {
		roleName = "OrganizationAccountAccessRole"
	}
	return &Gateway{base: base, roleName: roleName}
}

var _ gateway.CloudGateway = (*Gateway)(nil)

func (g *Gateway) ListResources(
	ctx context.Context,
	kind domain.ResourceKind,
	region string,
	creds domain.Credentials,
) ([]domain.Resource, error) {
	cfg := scopedConfig(g.base, region, creds)

	switch kind {
	case domain.ResourceVolume:
		return listVolumes(ctx, cfg, region)
	case domain.ResourceAddress:
		return listAddresses(ctx, cfg, region)
	case domain.ResourceNATGateway:
		return listNATGateways(ctx, cfg, region)
	case domain.ResourceInstance:
		return listInstances(ctx, cfg, region)
	case domain.ResourceSecurityGroup:
		return listSecurityGroups(ctx, cfg, region)
	case domain.ResourceDBInstance:
		return listDBInstances(ctx, cfg, region)
	case domain.ResourceBucket:
		return listBuckets(ctx, cfg)
	case domain.ResourceAccessKey:
		return listAccessKeys(ctx, cfg)
	case domain.ResourceFunction:
		return listFunctions(ctx, cfg, region)
	case domain.ResourceVPC:
		return listVPCs(ctx, cfg, region)
	case domain.ResourceLoadBalancer:
		return listLoadBalancers(ctx, cfg, region)
	case domain.ResourceCapacityReservation:
		return listCapacityReservations(ctx, cfg, region)
	case domain.ResourceHealthEvent:
		return listHealthEvents(ctx, cfg)
	case domain.ResourceAdvisorCheck:
		return listAdvisorChecks(ctx, cfg)
	case domain.ResourceServiceQuota:
		return listServiceQuotas(ctx, cfg, region)
	default:
		return nil, fmt.Errorf("unsupported resource kind: %s", kind)
	}
}

func (g *Gateway) GetUsage(
	ctx context.Context,
	windowDays int,
	creds domain.Credentials,
) ([]domain.UsagePoint, error) {
	cfg := scopedConfig(g.base, DefaultRegion, creds)
	client := costexplorer.NewFromConfig(cfg)

	end := time.Now()
	start := end.AddDate(0, 0, -windowDays)

	result, err := client.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: awssdk.String(start.Format("2006-01-02")),
			End:   awssdk.String(end.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		Filter: &cetypes.Expression{
			Not: &cetypes.Expression{
				Dimensions: &cetypes.DimensionValues{
					Key:    cetypes.DimensionRecordType,
					Values: []string{"Credit", "Refund"},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cost and usage: %w", err)
	}

	points := make([]domain.UsagePoint, 0, len(result.ResultsByTime))
	for _, rt := range result.ResultsByTime {
		if rt.TimePeriod == nil || rt.Total == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", awssdk.ToString(rt.TimePeriod.Start))
		if err != nil {
			continue
		}
		amount := parseAmount(rt.Total["UnblendedCost"].Amount)
		points = append(points, domain.UsagePoint{Date: date, Amount: amount})
	}
	return points, nil
}

func (g *Gateway) AssumeIdentity(ctx context.Context, accountID string) (domain.Credentials, error) {
	client := sts.NewFromConfig(g.base)

	out, err := client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         awssdk.String(fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, g.roleName)),
		RoleSessionName: awssdk.String("ops-agent-scan"),
		DurationSeconds: awssdk.Int32(3600),
	})
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to assume role %s in %s: %w", g.roleName, accountID, err)
	}

	c := out.Credentials
	return domain.Credentials{
		AccessKeyID:     awssdk.ToString(c.AccessKeyId),
		SecretAccessKey: awssdk.ToString(c.SecretAccessKey),
		SessionToken:    awssdk.ToString(c.SessionToken),
		Expiry:          awssdk.ToTime(c.Expiration),
	}, nil
}

func parseAmount(s *string) float64 {
	if s == nil {
		return 0
	}
	var v float64
	_, _ = fmt.Sscanf(*s, "%f", &v)
	return v
}
