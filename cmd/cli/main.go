package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	awsgateway "github.com/de-tools/ops-agent/pkg/gateway/aws"
	"github.com/de-tools/ops-agent/pkg/skills"
	"github.com/de-tools/ops-agent/pkg/terminal/commands"
	"github.com/de-tools/ops-agent/pkg/terminal/export"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ops-agent",
		Short: "Scan cloud accounts for cost, security, and reliability issues",
	}
	rootCmd.AddCommand(
		commands.NewSkillsCmd(buildEnv),
		commands.NewScanCmd(buildEnv, export.NewReporter(os.Stdout)),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildEnv(ctx context.Context, profile string) (*commands.Env, error) {
	awsCfg, err := awsgateway.LoadConfig(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	gw := awsgateway.NewGateway(*awsCfg, awsgateway.Settings{})

	registry, err := skills.NewRegistry(
		skills.NewZombieHunter(gw),
		skills.NewSecurityPosture(gw),
		skills.NewTagEnforcer(gw),
		skills.NewLifecycleTracker(gw),
		skills.NewResiliencyGaps(gw),
		skills.NewCapacityPlanner(gw),
		skills.NewCostAnomaly(gw),
		skills.NewHealthMonitor(gw),
		skills.NewQuotaGuardian(gw),
	)
	if err != nil {
		return nil, err
	}

	return &commands.Env{
		Registry:        registry,
		DiscoverRegions: gw.DiscoverRegions,
	}, nil
}
