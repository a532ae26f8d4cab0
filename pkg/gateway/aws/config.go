package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

const (
	DefaultRegion = "us-east-1" // Default region if not specified in AWS profile
)

// LoadConfig resolves the ambient configuration for the given profile and
// verifies the credentials actually resolve.
func LoadConfig(ctx context.Context, profile string) (*awssdk.Config, error) {
	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithSharedConfigProfile(profile),
		config.WithDefaultRegion(DefaultRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	_, err = awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid AWS credentials for profile %s: %w", profile, err)
	}

	return &awsCfg, nil
}

// scopedConfig derives a per-request configuration. A non-zero credential
// bundle overrides the ambient identity; the bundle lives only in the copy
// returned here, never in shared state.
func scopedConfig(base awssdk.Config, region string, creds domain.Credentials) awssdk.Config {
	cfg := base.Copy()
	if region != "" {
		cfg.Region = region
	}
	if !creds.IsZero() {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			creds.SessionToken,
		)
	}
	return cfg
}
