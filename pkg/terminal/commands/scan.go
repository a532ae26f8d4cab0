package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/ops-agent/pkg/jobs"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/terminal/export"
)

type ScanCmd struct {
	profile  string
	regions  []string
	skillIDs []string
	workers  int
	builder  EnvBuilder
	reporter *export.Reporter
}

func NewScanCmd(builder EnvBuilder, reporter *export.Reporter) *cobra.Command {
	sc := &ScanCmd{builder: builder, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run skills against the current account and print a summary",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.profile, "profile", "", "AWS profile to use")
	cmd.Flags().StringSliceVar(&sc.regions, "regions", nil, "Regions to scan (default: discover enabled regions)")
	cmd.Flags().StringSliceVar(&sc.skillIDs, "skills", nil, "Skill ids to run (default: all)")
	cmd.Flags().IntVar(&sc.workers, "workers", 8, "Worker pool size")

	return cmd
}

func (sc *ScanCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	env, err := sc.builder(ctx, sc.profile)
	if err != nil {
		return err
	}

	skillIDs := sc.skillIDs
	if len(skillIDs) == 0 {
		skillIDs = env.Registry.IDs()
	}

	regions := sc.regions
	if len(regions) == 0 {
		regions, err = env.DiscoverRegions(ctx)
		if err != nil {
			return fmt.Errorf("failed to discover regions: %w", err)
		}
		logger.Info().Strs("regions", regions).Msg("discovered enabled regions")
	}

	orchestrator := jobs.NewOrchestrator(env.Registry, jobs.NewStore(), jobs.Options{Workers: sc.workers})
	defer orchestrator.Shutdown()

	results, err := orchestrator.RunScan(ctx, skillIDs, domain.Scope{Regions: regions})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return sc.reporter.Handle(results)
}
