package aws

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// defaultTags are applied when a tagging action has no explicit values to
// restore; owners fill in real values afterwards.
var defaultTags = map[string]string{
	"Environment": "untagged",
	"Team":        "unassigned",
	"Owner":       "unassigned",
}

// Mutate executes one remediation action. The action names form a closed
// set; anything else is rejected before touching the provider.
func (g *Gateway) Mutate(ctx context.Context, m gateway.Mutation, creds domain.Credentials) (string, error) {
	region := m.Region
	if region == "" {
		region = DefaultRegion
	}
	cfg := scopedConfig(g.base, region, creds)

	switch m.Action {
	case "delete_ebs_volume":
		_, err := ec2.NewFromConfig(cfg).DeleteVolume(ctx, &ec2.DeleteVolumeInput{
			VolumeId: awssdk.String(m.ResourceID),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted EBS volume %s", m.ResourceID), nil

	case "release_eip":
		_, err := ec2.NewFromConfig(cfg).ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
			AllocationId: awssdk.String(m.ResourceID),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Released Elastic IP %s", m.ResourceID), nil

	case "delete_nat_gateway":
		_, err := ec2.NewFromConfig(cfg).DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{
			NatGatewayId: awssdk.String(m.ResourceID),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted NAT gateway %s", m.ResourceID), nil

	case "stop_ec2_instance":
		_, err := ec2.NewFromConfig(cfg).StopInstances(ctx, &ec2.StopInstancesInput{
			InstanceIds: []string{m.ResourceID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Stopped EC2 instance %s", m.ResourceID), nil

	case "stop_rds_instance":
		_, err := rds.NewFromConfig(cfg).StopDBInstance(ctx, &rds.StopDBInstanceInput{
			DBInstanceIdentifier: awssdk.String(m.ResourceID),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Stopped RDS instance %s", m.ResourceID), nil

	case "restrict_security_group":
		port, err := strconv.Atoi(m.Params["port"])
		if err != nil || port == 0 {
			return "", fmt.Errorf("missing or invalid port parameter: %q", m.Params["port"])
		}
		_, err = ec2.NewFromConfig(cfg).RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
			GroupId: awssdk.String(m.ResourceID),
			IpPermissions: []ec2types.IpPermission{{
				IpProtocol: awssdk.String("tcp"),
				FromPort:   awssdk.Int32(int32(port)),
				ToPort:     awssdk.Int32(int32(port)),
				IpRanges:   []ec2types.IpRange{{CidrIp: awssdk.String("0.0.0.0/0")}},
			}},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Revoked 0.0.0.0/0 ingress on port %d for %s", port, m.ResourceID), nil

	case "block_s3_public_access":
		_, err := s3.NewFromConfig(cfg).PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
			Bucket: awssdk.String(m.ResourceID),
			PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
				BlockPublicAcls:       awssdk.Bool(true),
				IgnorePublicAcls:      awssdk.Bool(true),
				BlockPublicPolicy:     awssdk.Bool(true),
				RestrictPublicBuckets: awssdk.Bool(true),
			},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Enabled Block Public Access on S3 bucket %s", m.ResourceID), nil

	case "deactivate_access_key":
		user := m.Params["user"]
		if user == "" {
			return "", fmt.Errorf("missing user parameter for access key %s", m.ResourceID)
		}
		_, err := iam.NewFromConfig(cfg).UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
			UserName:    awssdk.String(user),
			AccessKeyId: awssdk.String(m.ResourceID),
			Status:      iamtypes.StatusTypeInactive,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deactivated access key %s for user %s", m.ResourceID, user), nil

	case "enable_rds_multi_az":
		_, err := rds.NewFromConfig(cfg).ModifyDBInstance(ctx, &rds.ModifyDBInstanceInput{
			DBInstanceIdentifier: awssdk.String(m.ResourceID),
			MultiAZ:              awssdk.Bool(true),
			ApplyImmediately:     awssdk.Bool(false),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Enabled Multi-AZ for RDS instance %s (applies during next maintenance window)", m.ResourceID), nil

	case "enable_rds_backups":
		_, err := rds.NewFromConfig(cfg).ModifyDBInstance(ctx, &rds.ModifyDBInstanceInput{
			DBInstanceIdentifier:  awssdk.String(m.ResourceID),
			BackupRetentionPeriod: awssdk.Int32(7),
			ApplyImmediately:      awssdk.Bool(true),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Enabled automated backups (7-day retention) for RDS instance %s", m.ResourceID), nil

	case "enable_vpc_flow_logs":
		input := &ec2.CreateFlowLogsInput{
			ResourceIds:        []string{m.ResourceID},
			ResourceType:       ec2types.FlowLogsResourceTypeVpc,
			TrafficType:        ec2types.TrafficTypeAll,
			LogDestinationType: ec2types.LogDestinationTypeCloudWatchLogs,
			LogGroupName:       awssdk.String("/aws/vpc/flowlogs/" + m.ResourceID),
		}
		if arn := m.Params["delivery_role_arn"]; arn != "" {
			input.DeliverLogsPermissionArn = awssdk.String(arn)
		}
		_, err := ec2.NewFromConfig(cfg).CreateFlowLogs(ctx, input)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Enabled VPC flow logs for %s", m.ResourceID), nil

	case "cancel_capacity_reservation":
		_, err := ec2.NewFromConfig(cfg).CancelCapacityReservation(ctx, &ec2.CancelCapacityReservationInput{
			CapacityReservationId: awssdk.String(m.ResourceID),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Cancelled capacity reservation %s", m.ResourceID), nil

	case "apply_tags_ec2":
		keys := missingTagKeys(m)
		tags := make([]ec2types.Tag, 0, len(keys))
		for _, k := range keys {
			tags = append(tags, ec2types.Tag{
				Key:   awssdk.String(k),
				Value: awssdk.String(tagValue(k)),
			})
		}
		_, err := ec2.NewFromConfig(cfg).CreateTags(ctx, &ec2.CreateTagsInput{
			Resources: []string{m.ResourceID},
			Tags:      tags,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Applied %d tags to EC2 %s: %s", len(keys), m.ResourceID, strings.Join(keys, ", ")), nil

	case "apply_tags_rds":
		arn := m.Params["arn"]
		if arn == "" {
			return "", fmt.Errorf("missing arn parameter for RDS instance %s", m.ResourceID)
		}
		keys := missingTagKeys(m)
		tags := make([]rdstypes.Tag, 0, len(keys))
		for _, k := range keys {
			tags = append(tags, rdstypes.Tag{
				Key:   awssdk.String(k),
				Value: awssdk.String(tagValue(k)),
			})
		}
		_, err := rds.NewFromConfig(cfg).AddTagsToResource(ctx, &rds.AddTagsToResourceInput{
			ResourceName: awssdk.String(arn),
			Tags:         tags,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Applied %d tags to RDS %s: %s", len(keys), m.ResourceID, strings.Join(keys, ", ")), nil

	case "apply_tags_s3":
		client := s3.NewFromConfig(cfg)
		var existing []s3types.Tag
		if tagging, err := client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{
			Bucket: awssdk.String(m.ResourceID),
		}); err == nil {
			existing = tagging.TagSet
		}
		present := make(map[string]bool, len(existing))
		for _, t := range existing {
			present[awssdk.ToString(t.Key)] = true
		}
		keys := missingTagKeys(m)
		merged := existing
		for _, k := range keys {
			if !present[k] {
				merged = append(merged, s3types.Tag{
					Key:   awssdk.String(k),
					Value: awssdk.String(tagValue(k)),
				})
			}
		}
		_, err := client.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
			Bucket:  awssdk.String(m.ResourceID),
			Tagging: &s3types.Tagging{TagSet: merged},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Applied %d tags to S3 %s: %s", len(keys), m.ResourceID, strings.Join(keys, ", ")), nil

	case "apply_tags_lambda":
		arn := m.Params["arn"]
		if arn == "" {
			return "", fmt.Errorf("missing arn parameter for function %s", m.ResourceID)
		}
		keys := missingTagKeys(m)
		tags := make(map[string]string, len(keys))
		for _, k := range keys {
			tags[k] = tagValue(k)
		}
		_, err := lambda.NewFromConfig(cfg).TagResource(ctx, &lambda.TagResourceInput{
			Resource: awssdk.String(arn),
			Tags:     tags,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Applied %d tags to Lambda %s: %s", len(keys), m.ResourceID, strings.Join(keys, ", ")), nil

	case "upgrade_lambda_runtime":
		target := m.Params["upgrade_to"]
		if target == "" {
			return "", fmt.Errorf("no upgrade runtime specified for function %s", m.ResourceID)
		}
		name := m.Params["arn"]
		if name == "" {
			name = m.ResourceID
		}
		_, err := lambda.NewFromConfig(cfg).UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
			FunctionName: awssdk.String(name),
			Runtime:      lambdatypes.Runtime(target),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated Lambda %s runtime to %s", m.ResourceID, target), nil

	case "upgrade_rds_engine":
		target := m.Params["upgrade_to"]
		if target == "" {
			return "", fmt.Errorf("no upgrade version specified for instance %s", m.ResourceID)
		}
		_, err := rds.NewFromConfig(cfg).ModifyDBInstance(ctx, &rds.ModifyDBInstanceInput{
			DBInstanceIdentifier:     awssdk.String(m.ResourceID),
			EngineVersion:            awssdk.String(target),
			AllowMajorVersionUpgrade: awssdk.Bool(true),
			ApplyImmediately:         awssdk.Bool(false),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Scheduled %s upgrade to %s (applies during next maintenance window)", m.ResourceID, target), nil

	default:
		return "", fmt.Errorf("unknown mutation action: %s", m.Action)
	}
}

func missingTagKeys(m gateway.Mutation) []string {
	raw := m.Params["missing_tags"]
	if raw == "" {
		keys := make([]string, 0, len(defaultTags))
		for k := range defaultTags {
			keys = append(keys, k)
		}
		return keys
	}
	return strings.Split(raw, ",")
}

func tagValue(key string) string {
	if v, ok := defaultTags[key]; ok {
		return v
	}
	return "unassigned"
}
