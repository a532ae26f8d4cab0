package aws

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func ec2Tags(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
	}
	return out
}

func listVolumes(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe volumes: %w", err)
		}
		for _, v := range page.Volumes {
			resources = append(resources, domain.Resource{
				ID:        awssdk.ToString(v.VolumeId),
				Kind:      domain.ResourceVolume,
				Region:    region,
				State:     string(v.State),
				CreatedAt: awssdk.ToTime(v.CreateTime),
				Tags:      ec2Tags(v.Tags),
				Attrs: map[string]string{
					"attachment_count": strconv.Itoa(len(v.Attachments)),
					"size_gb":          strconv.Itoa(int(awssdk.ToInt32(v.Size))),
					"volume_type":      string(v.VolumeType),
				},
			})
		}
	}
	return resources, nil
}

func listAddresses(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)

	out, err := client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe addresses: %w", err)
	}

	resources := make([]domain.Resource, 0, len(out.Addresses))
	for _, a := range out.Addresses {
		state := "associated"
		if a.AssociationId == nil {
			state = "unassociated"
		}
		resources = append(resources, domain.Resource{
			ID:     awssdk.ToString(a.AllocationId),
			Kind:   domain.ResourceAddress,
			Region: region,
			State:  state,
			Tags:   ec2Tags(a.Tags),
			Attrs: map[string]string{
				"public_ip": awssdk.ToString(a.PublicIp),
			},
		})
	}
	return resources, nil
}

func listNATGateways(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)
	cw := cloudwatch.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := ec2.NewDescribeNatGatewaysPaginator(client, &ec2.DescribeNatGatewaysInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe NAT gateways: %w", err)
		}
		for _, gw := range page.NatGateways {
			id := awssdk.ToString(gw.NatGatewayId)
			attrs := map[string]string{
				"vpc_id": awssdk.ToString(gw.VpcId),
			}
			if sum, ok := metricStat(ctx, cw, "AWS/NATGateway", "BytesOutToDestination",
				"NatGatewayId", id, cwtypes.StatisticSum, 7); ok {
				attrs["bytes_out_7d"] = strconv.FormatFloat(sum, 'f', 0, 64)
			}
			resources = append(resources, domain.Resource{
				ID:        id,
				Kind:      domain.ResourceNATGateway,
				Region:    region,
				State:     string(gw.State),
				CreatedAt: awssdk.ToTime(gw.CreateTime),
				Tags:      ec2Tags(gw.Tags),
				Attrs:     attrs,
			})
		}
	}
	return resources, nil
}

func listInstances(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)
	cw := cloudwatch.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				var state string
				if inst.State != nil {
					state = string(inst.State.Name)
				}
				attrs := map[string]string{
					"instance_type": string(inst.InstanceType),
				}
				if inst.StateTransitionReason != nil {
					attrs["state_transition_reason"] = awssdk.ToString(inst.StateTransitionReason)
				}
				if state == "running" {
					if avg, ok := metricStat(ctx, cw, "AWS/EC2", "CPUUtilization",
						"InstanceId", awssdk.ToString(inst.InstanceId), cwtypes.StatisticAverage, 7); ok {
						attrs["cpu_avg_7d"] = strconv.FormatFloat(avg, 'f', 2, 64)
					}
				}
				resources = append(resources, domain.Resource{
					ID:        awssdk.ToString(inst.InstanceId),
					Kind:      domain.ResourceInstance,
					Region:    region,
					State:     state,
					CreatedAt: awssdk.ToTime(inst.LaunchTime),
					Tags:      ec2Tags(inst.Tags),
					Attrs:     attrs,
				})
			}
		}
	}
	return resources, nil
}

func listSecurityGroups(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := ec2.NewDescribeSecurityGroupsPaginator(client, &ec2.DescribeSecurityGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe security groups: %w", err)
		}
		for _, sg := range page.SecurityGroups {
			var openPorts []string
			for _, perm := range sg.IpPermissions {
				for _, ipRange := range perm.IpRanges {
					if awssdk.ToString(ipRange.CidrIp) == "0.0.0.0/0" && perm.FromPort != nil {
						openPorts = append(openPorts, strconv.Itoa(int(awssdk.ToInt32(perm.FromPort))))
					}
				}
			}
			resources = append(resources, domain.Resource{
				ID:     awssdk.ToString(sg.GroupId),
				Kind:   domain.ResourceSecurityGroup,
				Region: region,
				Tags:   ec2Tags(sg.Tags),
				Attrs: map[string]string{
					"group_name": awssdk.ToString(sg.GroupName),
					"open_ports": strings.Join(openPorts, ","),
				},
			})
		}
	}
	return resources, nil
}

func listDBInstances(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := rds.NewFromConfig(cfg)
	cw := cloudwatch.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe DB instances: %w", err)
		}
		for _, db := range page.DBInstances {
			tags := make(map[string]string, len(db.TagList))
			for _, t := range db.TagList {
				tags[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
			}
			id := awssdk.ToString(db.DBInstanceIdentifier)
			status := awssdk.ToString(db.DBInstanceStatus)
			attrs := map[string]string{
				"arn":              awssdk.ToString(db.DBInstanceArn),
				"engine":           awssdk.ToString(db.Engine),
				"engine_version":   awssdk.ToString(db.EngineVersion),
				"multi_az":         strconv.FormatBool(awssdk.ToBool(db.MultiAZ)),
				"backup_retention": strconv.Itoa(int(awssdk.ToInt32(db.BackupRetentionPeriod))),
				"instance_class":   awssdk.ToString(db.DBInstanceClass),
			}
			if status == "available" {
				if sum, ok := metricStat(ctx, cw, "AWS/RDS", "DatabaseConnections",
					"DBInstanceIdentifier", id, cwtypes.StatisticSum, 7); ok {
					attrs["connections_7d"] = strconv.FormatFloat(sum, 'f', 0, 64)
				}
			}
			resources = append(resources, domain.Resource{
				ID:        id,
				Kind:      domain.ResourceDBInstance,
				Region:    region,
				State:     status,
				CreatedAt: awssdk.ToTime(db.InstanceCreateTime),
				Tags:      tags,
				Attrs:     attrs,
			})
		}
	}
	return resources, nil
}

func listBuckets(ctx context.Context, cfg awssdk.Config) ([]domain.Resource, error) {
	client := s3.NewFromConfig(cfg)

	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	resources := make([]domain.Resource, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := awssdk.ToString(b.Name)
		blocked := "false"
		// Missing configuration means nothing blocks public access.
		pab, err := client.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{
			Bucket: awssdk.String(name),
		})
		if err == nil && pab.PublicAccessBlockConfiguration != nil {
			c := pab.PublicAccessBlockConfiguration
			if awssdk.ToBool(c.BlockPublicAcls) && awssdk.ToBool(c.BlockPublicPolicy) {
				blocked = "true"
			}
		}

		var tags map[string]string
		if tagging, err := client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{
			Bucket: awssdk.String(name),
		}); err == nil {
			tags = make(map[string]string, len(tagging.TagSet))
			for _, t := range tagging.TagSet {
				tags[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
			}
		}

		resources = append(resources, domain.Resource{
			ID:        name,
			Kind:      domain.ResourceBucket,
			CreatedAt: awssdk.ToTime(b.CreationDate),
			Tags:      tags,
			Attrs: map[string]string{
				"public_access_blocked": blocked,
			},
		})
	}
	return resources, nil
}

func listAccessKeys(ctx context.Context, cfg awssdk.Config) ([]domain.Resource, error) {
	client := iam.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := iam.NewListUsersPaginator(client, &iam.ListUsersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list IAM users: %w", err)
		}
		for _, u := range page.Users {
			userName := awssdk.ToString(u.UserName)
			keys, err := client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
				UserName: awssdk.String(userName),
			})
			if err != nil {
				return resources, fmt.Errorf("failed to list access keys for %s: %w", userName, err)
			}
			for _, k := range keys.AccessKeyMetadata {
				resources = append(resources, domain.Resource{
					ID:        awssdk.ToString(k.AccessKeyId),
					Kind:      domain.ResourceAccessKey,
					State:     string(k.Status),
					CreatedAt: awssdk.ToTime(k.CreateDate),
					Attrs: map[string]string{
						"user": userName,
					},
				})
			}
		}
	}
	return resources, nil
}

func listFunctions(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := lambda.NewFromConfig(cfg)

	var resources []domain.Resource
	paginator := lambda.NewListFunctionsPaginator(client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list functions: %w", err)
		}
		for _, fn := range page.Functions {
			arn := awssdk.ToString(fn.FunctionArn)
			var tags map[string]string
			if tagged, err := client.ListTags(ctx, &lambda.ListTagsInput{
				Resource: awssdk.String(arn),
			}); err == nil {
				tags = tagged.Tags
			}
			resources = append(resources, domain.Resource{
				ID:     awssdk.ToString(fn.FunctionName),
				Kind:   domain.ResourceFunction,
				Region: region,
				Tags:   tags,
				Attrs: map[string]string{
					"arn":     arn,
					"runtime": string(fn.Runtime),
				},
			})
		}
	}
	return resources, nil
}

func listVPCs(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)

	flowLogs, err := client.DescribeFlowLogs(ctx, &ec2.DescribeFlowLogsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe flow logs: %w", err)
	}
	covered := make(map[string]bool, len(flowLogs.FlowLogs))
	for _, fl := range flowLogs.FlowLogs {
		covered[awssdk.ToString(fl.ResourceId)] = true
	}

	out, err := client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe VPCs: %w", err)
	}

	resources := make([]domain.Resource, 0, len(out.Vpcs))
	for _, vpc := range out.Vpcs {
		id := awssdk.ToString(vpc.VpcId)
		resources = append(resources, domain.Resource{
			ID:     id,
			Kind:   domain.ResourceVPC,
			Region: region,
			State:  string(vpc.State),
			Tags:   ec2Tags(vpc.Tags),
			Attrs: map[string]string{
				"flow_logs": strconv.FormatBool(covered[id]),
			},
		})
	}
	return resources, nil
}

func listLoadBalancers(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := elasticloadbalancingv2.NewFromConfig(cfg)

	lbs, err := client.DescribeLoadBalancers(ctx, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe load balancers: %w", err)
	}

	var resources []domain.Resource
	for _, lb := range lbs.LoadBalancers {
		arn := awssdk.ToString(lb.LoadBalancerArn)
		minTargets := -1
		groups, err := client.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
			LoadBalancerArn: awssdk.String(arn),
		})
		if err == nil {
			for _, tg := range groups.TargetGroups {
				health, err := client.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
					TargetGroupArn: tg.TargetGroupArn,
				})
				if err != nil {
					continue
				}
				if minTargets < 0 || len(health.TargetHealthDescriptions) < minTargets {
					minTargets = len(health.TargetHealthDescriptions)
				}
			}
		}
		var state string
		if lb.State != nil {
			state = string(lb.State.Code)
		}
		resources = append(resources, domain.Resource{
			ID:        awssdk.ToString(lb.LoadBalancerName),
			Kind:      domain.ResourceLoadBalancer,
			Region:    region,
			State:     state,
			CreatedAt: awssdk.ToTime(lb.CreatedTime),
			Attrs: map[string]string{
				"arn":         arn,
				"min_targets": strconv.Itoa(minTargets),
			},
		})
	}
	return resources, nil
}

func listCapacityReservations(ctx context.Context, cfg awssdk.Config, region string) ([]domain.Resource, error) {
	client := ec2.NewFromConfig(cfg)

	out, err := client.DescribeCapacityReservations(ctx, &ec2.DescribeCapacityReservationsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe capacity reservations: %w", err)
	}

	resources := make([]domain.Resource, 0, len(out.CapacityReservations))
	for _, cr := range out.CapacityReservations {
		resources = append(resources, domain.Resource{
			ID:        awssdk.ToString(cr.CapacityReservationId),
			Kind:      domain.ResourceCapacityReservation,
			Region:    region,
			State:     string(cr.State),
			CreatedAt: awssdk.ToTime(cr.CreateDate),
			Tags:      ec2Tags(cr.Tags),
			Attrs: map[string]string{
				"instance_type":   awssdk.ToString(cr.InstanceType),
				"total_count":     strconv.Itoa(int(awssdk.ToInt32(cr.TotalInstanceCount))),
				"available_count": strconv.Itoa(int(awssdk.ToInt32(cr.AvailableInstanceCount))),
			},
		})
	}
	return resources, nil
}
