package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// Directory reads the organization hierarchy from AWS Organizations.
type Directory struct {
	client *organizations.Client
}

func NewDirectory(base awssdk.Config) *Directory {
	return &Directory{client: organizations.NewFromConfig(base)}
}

var _ gateway.OrgDirectory = (*Directory)(nil)

// Tree returns the top-level organizational units and their active member
// accounts. Suspended accounts are filtered out.
func (d *Directory) Tree(ctx context.Context) ([]domain.OrgUnit, error) {
	roots, err := d.client.ListRoots(ctx, &organizations.ListRootsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list organization roots: %w", err)
	}
	if len(roots.Roots) == 0 {
		return nil, fmt.Errorf("organization has no root")
	}
	rootID := awssdk.ToString(roots.Roots[0].Id)

	ous, err := d.client.ListOrganizationalUnitsForParent(ctx, &organizations.ListOrganizationalUnitsForParentInput{
		ParentId: awssdk.String(rootID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list organizational units: %w", err)
	}

	units := make([]domain.OrgUnit, 0, len(ous.OrganizationalUnits))
	for _, ou := range ous.OrganizationalUnits {
		unit := domain.OrgUnit{
			ID:   awssdk.ToString(ou.Id),
			Name: awssdk.ToString(ou.Name),
		}

		paginator := organizations.NewListAccountsForParentPaginator(d.client, &organizations.ListAccountsForParentInput{
			ParentId: ou.Id,
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list accounts for OU %s: %w", unit.Name, err)
			}
			for _, a := range page.Accounts {
				if a.Status != orgtypes.AccountStatusActive {
					continue
				}
				unit.Accounts = append(unit.Accounts, domain.OrgAccount{
					ID:   awssdk.ToString(a.Id),
					Name: awssdk.ToString(a.Name),
				})
			}
		}
		units = append(units, unit)
	}
	return units, nil
}
