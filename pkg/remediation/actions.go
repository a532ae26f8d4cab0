// Package remediation maps findings to corrective cloud mutations behind a
// propose/confirm handshake with single-use tokens.
package remediation

import (
	"strconv"

	regexp "github.com/wasilibs/go-re2"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// pattern binds one finding shape to one mutation. Permission documents the
// minimum IAM write permission the confirm step needs; it is surfaced in
// proposals so operators can pre-stage roles.
type pattern struct {
	Skill      string
	Title      *regexp.Regexp
	Action     string
	Permission string
}

// patterns is the closed remediation table. A finding outside this table has
// no remediation and Propose rejects it.
var patterns = []pattern{
	{"zombie-hunter", regexp.MustCompile(`^Unattached EBS:`), "delete_ebs_volume", "ec2:DeleteVolume"},
	{"zombie-hunter", regexp.MustCompile(`^Unused EIP:`), "release_eip", "ec2:ReleaseAddress"},
	{"zombie-hunter", regexp.MustCompile(`^Unused NAT GW:`), "delete_nat_gateway", "ec2:DeleteNatGateway"},
	{"zombie-hunter", regexp.MustCompile(`^Idle EC2:`), "stop_ec2_instance", "ec2:StopInstances"},
	{"zombie-hunter", regexp.MustCompile(`^Idle RDS:`), "stop_rds_instance", "rds:StopDBInstance"},
	{"security-posture", regexp.MustCompile(`^Open port .+ to 0\.0\.0\.0/0:`), "restrict_security_group", "ec2:RevokeSecurityGroupIngress"},
	{"security-posture", regexp.MustCompile(`^Public S3 bucket:`), "block_s3_public_access", "s3:PutBucketPublicAccessBlock"},
	{"security-posture", regexp.MustCompile(`^Old access key:`), "deactivate_access_key", "iam:UpdateAccessKey"},
	{"resiliency-gaps", regexp.MustCompile(`^Single-AZ RDS:`), "enable_rds_multi_az", "rds:ModifyDBInstance"},
	{"resiliency-gaps", regexp.MustCompile(`^No backups: RDS`), "enable_rds_backups", "rds:ModifyDBInstance"},
	{"resiliency-gaps", regexp.MustCompile(`^No VPC Flow Logs:`), "enable_vpc_flow_logs", "ec2:CreateFlowLogs"},
	{"capacity-planner", regexp.MustCompile(`^Underutilized ODCR:`), "cancel_capacity_reservation", "ec2:CancelCapacityReservation"},
	{"tag-enforcer", regexp.MustCompile(`^Untagged EC2:`), "apply_tags_ec2", "ec2:CreateTags"},
	{"tag-enforcer", regexp.MustCompile(`^Untagged RDS:`), "apply_tags_rds", "rds:AddTagsToResource"},
	{"tag-enforcer", regexp.MustCompile(`^Untagged S3:`), "apply_tags_s3", "s3:PutBucketTagging"},
	{"tag-enforcer", regexp.MustCompile(`^Untagged Lambda:`), "apply_tags_lambda", "lambda:TagResource"},
	{"lifecycle-tracker", regexp.MustCompile(`^Deprecated runtime:`), "upgrade_lambda_runtime", "lambda:UpdateFunctionConfiguration"},
	{"lifecycle-tracker", regexp.MustCompile(`^EOL RDS engine:`), "upgrade_rds_engine", "rds:ModifyDBInstance"},
}

var openPortRe = regexp.MustCompile(`Open port (\d+)`)

func lookup(f domain.Finding) (pattern, bool) {
	for _, p := range patterns {
		if p.Skill == f.Skill && p.Title.MatchString(f.Title) {
			return p, true
		}
	}
	return pattern{}, false
}

// HasRemediation reports whether a finding matches the action table.
func HasRemediation(f domain.Finding) bool {
	_, ok := lookup(f)
	return ok
}

// mutationFor translates a finding into the gateway mutation its action
// needs, pulling action parameters out of finding metadata and, for the
// security group case, the port out of the title.
func mutationFor(p pattern, f domain.Finding) gateway.Mutation {
	params := map[string]string{}
	for _, key := range []string{"user", "arn", "upgrade_to", "missing_tags", "delivery_role_arn"} {
		if v, ok := f.Metadata[key]; ok && v != "" {
			params[key] = v
		}
	}
	if p.Action == "restrict_security_group" {
		if _, ok := params["port"]; !ok {
			if m := openPortRe.FindStringSubmatch(f.Title); m != nil {
				if _, err := strconv.Atoi(m[1]); err == nil {
					params["port"] = m[1]
				}
			}
		}
		if v, ok := f.Metadata["port"]; ok && v != "" {
			params["port"] = v
		}
	}
	return gateway.Mutation{
		Action:     p.Action,
		ResourceID: f.ResourceID,
		Region:     f.Region,
		Params:     params,
	}
}
