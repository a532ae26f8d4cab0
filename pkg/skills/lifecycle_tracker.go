package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// deprecatedRuntimes maps runtimes past their support window to the
// upgrade target.
var deprecatedRuntimes = map[string]string{
	"python3.7":  "python3.12",
	"python3.8":  "python3.12",
	"nodejs14.x": "nodejs20.x",
	"nodejs16.x": "nodejs20.x",
	"go1.x":      "provided.al2023",
	"ruby2.7":    "ruby3.3",
	"java8":      "java21",
	"dotnet6":    "dotnet8",
}

// eolEngines maps end-of-life database engine version prefixes to the
// upgrade target.
var eolEngines = map[string]map[string]string{
	"mysql":    {"5.6": "8.0", "5.7": "8.0"},
	"postgres": {"10": "15", "11": "15", "12": "15"},
	"mariadb":  {"10.3": "10.11", "10.4": "10.11"},
}

// LifecycleTracker flags Lambda runtimes and RDS engines past end of life.
type LifecycleTracker struct {
	gw gateway.CloudGateway
}

func NewLifecycleTracker(gw gateway.CloudGateway) *LifecycleTracker {
	return &LifecycleTracker{gw: gw}
}

func (s *LifecycleTracker) Describe() Descriptor {
	return Descriptor{
		ID:          "lifecycle-tracker",
		Name:        "Lifecycle Tracker",
		Description: "Detect deprecated Lambda runtimes and end-of-life RDS engine versions",
	}
}

func (s *LifecycleTracker) Scan(ctx context.Context, scope domain.Scope) domain.SkillResult {
	return runScanners(ctx, "lifecycle-tracker", scope, []scanner{
		{name: "runtimes", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanRuntimes(ctx, region, scope.Credentials)
		}},
		{name: "engines", fn: func(ctx context.Context, region string) ([]domain.Finding, error) {
			return s.scanEngines(ctx, region, scope.Credentials)
		}},
	})
}

func (s *LifecycleTracker) scanRuntimes(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	functions, err := s.gw.ListResources(ctx, domain.ResourceFunction, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, fn := range functions {
		runtime := fn.Attrs["runtime"]
		target, deprecated := deprecatedRuntimes[runtime]
		if !deprecated {
			continue
		}
		findings = append(findings, domain.Finding{
			Skill:             "lifecycle-tracker",
			Title:             fmt.Sprintf("Deprecated runtime: %s (%s)", fn.ID, runtime),
			Severity:          domain.SeverityHigh,
			Region:            region,
			ResourceID:        fn.ID,
			RecommendedAction: fmt.Sprintf("Upgrade runtime to %s", target),
			Metadata: map[string]string{
				"runtime":    runtime,
				"upgrade_to": target,
				"arn":        fn.Attrs["arn"],
			},
		})
	}
	return findings, nil
}

func (s *LifecycleTracker) scanEngines(ctx context.Context, region string, creds domain.Credentials) ([]domain.Finding, error) {
	dbs, err := s.gw.ListResources(ctx, domain.ResourceDBInstance, region, creds)
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, db := range dbs {
		engine := db.Attrs["engine"]
		version := db.Attrs["engine_version"]
		versions, tracked := eolEngines[engine]
		if !tracked {
			continue
		}
		for prefix, target := range versions {
			if !strings.HasPrefix(version, prefix) {
				continue
			}
			findings = append(findings, domain.Finding{
				Skill:             "lifecycle-tracker",
				Title:             fmt.Sprintf("EOL RDS engine: %s (%s %s)", db.ID, engine, version),
				Severity:          domain.SeverityHigh,
				Region:            region,
				ResourceID:        db.ID,
				RecommendedAction: fmt.Sprintf("Upgrade %s to %s", engine, target),
				Metadata: map[string]string{
					"engine":     engine,
					"version":    version,
					"upgrade_to": target,
					"arn":        db.Attrs["arn"],
				},
			})
			break
		}
	}
	return findings, nil
}
