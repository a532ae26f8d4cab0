package skills

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/rs/zerolog"
)

// scanner inspects one region (or the whole account for global resources)
// and returns the findings it produced.
type scanner struct {
	name   string
	global bool
	fn     func(ctx context.Context, region string) ([]domain.Finding, error)
}

// runScanners drives a skill's scanners over every region in scope. A
// failing scanner contributes an entry to Errors and the scan continues;
// partial results are always preserved.
func runScanners(ctx context.Context, id string, scope domain.Scope, scanners []scanner) domain.SkillResult {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	result := domain.SkillResult{Skill: id}
	for _, s := range scanners {
		regions := scope.Regions
		if s.global {
			regions = []string{""}
		}
		for _, region := range regions {
			if ctx.Err() != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", s.name, ctx.Err()))
				result.Duration = time.Since(start)
				return result
			}
			findings, err := s.fn(ctx, region)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("skill", id).
					Str("scanner", s.name).
					Str("region", region).
					Msg("scanner failed")
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", s.name, err))
				continue
			}
			result.Findings = append(result.Findings, findings...)
		}
	}

	for i := range result.Findings {
		result.Findings[i].AccountID = scope.AccountID
	}
	result.Duration = time.Since(start)
	return result
}
