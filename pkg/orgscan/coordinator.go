// Package orgscan fans the orchestrator out across every account in the
// organization, attributing results to the unit/account tree.
package orgscan

import (
	"context"

	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/rs/zerolog"
)

const managementUnit = "Management"

// ScanRunner is the slice of the orchestrator the coordinator needs.
type ScanRunner interface {
	RunScan(ctx context.Context, skillIDs []string, scope domain.Scope) ([]domain.SkillResult, error)
}

type Coordinator struct {
	directory gateway.OrgDirectory
	gw        gateway.CloudGateway
	runner    ScanRunner
}

func NewCoordinator(directory gateway.OrgDirectory, gw gateway.CloudGateway, runner ScanRunner) *Coordinator {
	return &Coordinator{directory: directory, gw: gw, runner: runner}
}

// Scan runs the given skills in every active account of the organization.
// Each account gets its own short-lived identity carried inside that
// account's scope; a failed assumption marks only that account and the
// rest of the tree still completes. The management account is scanned with
// the ambient identity under its own unit.
func (c *Coordinator) Scan(
	ctx context.Context,
	skillIDs []string,
	regions []string,
	managementAccountID string,
) (domain.OrgScanResult, error) {
	logger := zerolog.Ctx(ctx)

	units, err := c.directory.Tree(ctx)
	if err != nil {
		return domain.OrgScanResult{}, domain.WrapError(domain.KindUpstreamUnavailable, err, "failed to read org tree")
	}

	result := domain.OrgScanResult{Units: make(map[string]domain.OrgUnitResult, len(units)+1)}

	for _, unit := range units {
		unitResult := domain.OrgUnitResult{Accounts: make(map[string]domain.AccountResult, len(unit.Accounts))}
		for _, account := range unit.Accounts {
			unitResult.Accounts[account.ID] = c.scanAccount(ctx, skillIDs, regions, account)
		}
		rollupUnit(&unitResult)
		result.Units[unit.Name] = unitResult
	}

	if managementAccountID != "" {
		mgmt := c.runAccount(ctx, skillIDs, domain.Scope{
			Regions:   regions,
			AccountID: managementAccountID,
		}, "Management Account")
		unitResult := domain.OrgUnitResult{
			Accounts: map[string]domain.AccountResult{managementAccountID: mgmt},
		}
		rollupUnit(&unitResult)
		result.Units[managementUnit] = unitResult
	}

	for _, unit := range result.Units {
		result.Summary.TotalFindings += unit.FindingsCount
		result.Summary.TotalCritical += unit.CriticalCount
		result.Summary.MonthlyImpact += unit.MonthlyImpact
	}

	logger.Info().
		Int("units", len(result.Units)).
		Int("findings", result.Summary.TotalFindings).
		Msg("org scan complete")
	return result, nil
}

func (c *Coordinator) scanAccount(
	ctx context.Context,
	skillIDs []string,
	regions []string,
	account domain.OrgAccount,
) domain.AccountResult {
	creds, err := c.gw.AssumeIdentity(ctx, account.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("account", account.ID).
			Msg("identity assumption failed")
		return domain.AccountResult{
			Name:   account.Name,
			Skills: map[string]domain.SkillResult{},
			Error:  err.Error(),
		}
	}

	return c.runAccount(ctx, skillIDs, domain.Scope{
		Regions:     regions,
		AccountID:   account.ID,
		Credentials: creds,
	}, account.Name)
}

func (c *Coordinator) runAccount(
	ctx context.Context,
	skillIDs []string,
	scope domain.Scope,
	name string,
) domain.AccountResult {
	account := domain.AccountResult{
		Name:   name,
		Skills: make(map[string]domain.SkillResult, len(skillIDs)),
	}

	results, err := c.runner.RunScan(ctx, skillIDs, scope)
	if err != nil {
		account.Error = err.Error()
		return account
	}

	for _, r := range results {
		account.Skills[r.Skill] = r
		account.FindingsCount += len(r.Findings)
		account.CriticalCount += r.CriticalCount()
		account.MonthlyImpact += r.TotalImpact()
	}
	return account
}

func rollupUnit(unit *domain.OrgUnitResult) {
	for _, account := range unit.Accounts {
		unit.FindingsCount += account.FindingsCount
		unit.CriticalCount += account.CriticalCount
		unit.MonthlyImpact += account.MonthlyImpact
	}
}
