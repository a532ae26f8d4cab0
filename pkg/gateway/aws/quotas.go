package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

type monitoredQuota struct {
	service string
	code    string
	name    string
}

// monitoredQuotas are the per-region limits that actually throttle workloads
// when exhausted. The full quota catalog runs to thousands of entries;
// listing them all per region would blow the scan budget for no signal.
var monitoredQuotas = []monitoredQuota{
	{"ec2", "L-1216C47A", "Running On-Demand Standard instances"},
	{"ec2", "L-0263D0A3", "EC2-VPC Elastic IPs"},
	{"vpc", "L-F678F1CE", "VPCs per Region"},
	{"vpc", "L-A4707A72", "Internet gateways per Region"},
	{"vpc", "L-FE5A380F", "NAT gateways per Availability Zone"},
	{"elasticloadbalancing", "L-53DA6B97", "Application Load Balancers per Region"},
	{"lambda", "L-B99A9384", "Concurrent executions"},
	{"rds", "L-7B6409FD", "DB instances"},
	{"s3", "L-DC2B2D3D", "Buckets"},
	{"ebs", "L-7A658000", "Storage for General Purpose SSD (gp3) volumes"},
	{"ecs", "L-21C621EB", "Clusters per account"},
	{"cloudformation", "L-0485CB21", "Stack count"},
}

func listServiceQuotas(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := servicequotas.NewFromConfig(cfg)
	cw := cloudwatch.NewFromConfig(cfg)

	var resources []domain.Resource
	for _, q := range monitoredQuotas {
		out, err := client.GetServiceQuota(ctx, &servicequotas.GetServiceQuotaInput{
			ServiceCode: awssdk.String(q.service),
			QuotaCode:   awssdk.String(q.code),
		})
		// Not every quota exists in every region.
		if err != nil || out.Quota == nil {
			continue
		}
		limit := awssdk.ToFloat64(out.Quota.Value)
		if limit <= 0 {
			continue
		}

		usagePct, ok := quotaUsagePercentage(ctx, cw, q, limit)
		if !ok {
			usagePct, ok = estimateQuotaUsage(ctx, cfg, q.code, limit)
		}
		if !ok {
			continue
		}

		resources = append(resources, domain.Resource{
			ID:     q.code,
			Kind:   domain.ResourceServiceQuota,
			Region: region,
			Attrs: map[string]string{
				"quota_name": q.name,
				"service":    q.service,
				"limit":      fmt.Sprintf("%.0f", limit),
				"usage_pct":  fmt.Sprintf("%.1f", usagePct),
			},
		})
	}
	return resources, nil
}

// quotaUsagePercentage reads the usage metric the Service Quotas console
// charts. Only a subset of services publish it, hence the boolean.
func quotaUsagePercentage(ctx context.Context, cw *cloudwatch.Client, q monitoredQuota, limit float64) (float64, bool) {
	end := time.Now()
	out, err := cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String("AWS/Usage"),
		MetricName: awssdk.String("ResourceCount"),
		Dimensions: []cwtypes.Dimension{
			{Name: awssdk.String("Type"), Value: awssdk.String("Resource")},
			{Name: awssdk.String("Service"), Value: awssdk.String(strings.ToUpper(q.service))},
			{Name: awssdk.String("Resource"), Value: awssdk.String(q.code)},
		},
		StartTime:  awssdk.Time(end.Add(-time.Hour)),
		EndTime:    awssdk.Time(end),
		Period:     awssdk.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticMaximum},
	})
	if err != nil || len(out.Datapoints) == 0 {
		return 0, false
	}
	var usage float64
	for _, p := range out.Datapoints {
		if v := awssdk.ToFloat64(p.Maximum); v > usage {
			usage = v
		}
	}
	return usage / limit * 100, true
}

// estimateQuotaUsage counts live resources for the quotas where a direct
// count is cheap and the usage metric is not published.
func estimateQuotaUsage(ctx context.Context, cfg awssdk.Config, quotaCode string, limit float64) (float64, bool) {
	var count int
	switch quotaCode {
	case "L-0263D0A3":
		out, err := ec2.NewFromConfig(cfg).DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
		if err != nil {
			return 0, false
		}
		count = len(out.Addresses)
	case "L-F678F1CE":
		out, err := ec2.NewFromConfig(cfg).DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
		if err != nil {
			return 0, false
		}
		count = len(out.Vpcs)
	case "L-7B6409FD":
		out, err := rds.NewFromConfig(cfg).DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{})
		if err != nil {
			return 0, false
		}
		count = len(out.DBInstances)
	default:
		return 0, false
	}
	return float64(count) / limit * 100, true
}
