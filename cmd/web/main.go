package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/ops-agent/pkg/chat"
	"github.com/de-tools/ops-agent/pkg/config"
	awsgateway "github.com/de-tools/ops-agent/pkg/gateway/aws"
	chathandler "github.com/de-tools/ops-agent/pkg/handlers/chat"
	"github.com/de-tools/ops-agent/pkg/handlers/remedy"
	scanhandler "github.com/de-tools/ops-agent/pkg/handlers/scan"
	"github.com/de-tools/ops-agent/pkg/jobs"
	"github.com/de-tools/ops-agent/pkg/orgscan"
	"github.com/de-tools/ops-agent/pkg/remediation"
	"github.com/de-tools/ops-agent/pkg/server"
	"github.com/de-tools/ops-agent/pkg/skills"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Start the ops agent web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the config file (optional; OPS_AGENT_* env vars override)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	awsCfg, err := awsgateway.LoadConfig(ctx, cfg.Profile)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	gw := awsgateway.NewGateway(*awsCfg, awsgateway.Settings{RoleName: cfg.Org.RoleName})
	directory := awsgateway.NewDirectory(*awsCfg)
	completer := awsgateway.NewCompleter(*awsCfg, awsgateway.CompleterSettings{
		ModelID: cfg.Chat.ModelID,
		Region:  cfg.Chat.Region,
	})

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
		return fmt.Errorf("failed to build skill registry: %w", err)
	}

	regions := cfg.Scan.Regions
	if len(regions) == 0 {
		regions, err = gw.DiscoverRegions(ctx)
		if err != nil {
			return fmt.Errorf("failed to discover regions: %w", err)
		}
	}

	store := jobs.NewStore()
	orchestrator := jobs.NewOrchestrator(registry, store, jobs.Options{Workers: cfg.Scan.Workers})
	defer orchestrator.Shutdown()

	coordinator := orgscan.NewCoordinator(directory, gw, orchestrator)
	orgRunner := orgscan.NewRunner(coordinator)

	audit := remediation.NewAuditLog()
	engine := remediation.NewEngine(gw, audit, cfg.Remediation.TokenTTL)
	chatService := chat.NewService(completer, engine, audit, cfg.Chat.MaxMessageLen)

	logger.Info().
		Strs("skills", registry.IDs()).
		Strs("regions", regions).
		Int("workers", cfg.Scan.Workers).
		Msg("ops agent configured")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.Server.Addr,
		APIKey:          cfg.Server.APIKey,
		RatePerSecond:   cfg.Server.RatePerSecond,
		RateBurst:       cfg.Server.RateBurst,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Scan: scanhandler.NewHandler(
				registry,
				orchestrator,
				orgRunner,
				regions,
				cfg.Org.ManagementAccountID,
			),
			Remedy: remedy.NewHandler(engine),
			Chat:   chathandler.NewHandler(chatService),
		},
	})

	return api.Start()
}
