// Package gateway defines the collaborator contracts the orchestration core
// depends on. The core reads provider state, cost series and the org tree,
// assumes per-account identities, and issues confirmed mutations only
// through these interfaces; the provider specifics live in subpackages.
package gateway

import (
	"context"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// Mutation describes one write action against a provider resource. Params
// carries action-specific detail (tag keys, port numbers, target runtime)
// copied from the finding that justified the mutation.
type Mutation struct {
	Action     string
	ResourceID string
	Region     string
	Params     map[string]string
}

// CloudGateway is the provider capability surface. Every call takes the
// request's credentials explicitly; implementations must not cache or
// share them between calls.
type CloudGateway interface {
	ListResources(
		ctx context.Context,
		kind domain.ResourceKind,
		region string,
		creds domain.Credentials,
	) ([]domain.Resource, error)

	// GetUsage returns the daily spend series for the trailing window.
	GetUsage(ctx context.Context, windowDays int, creds domain.Credentials) ([]domain.UsagePoint, error)

	// Mutate executes one write action and returns a human-readable outcome.
	Mutate(ctx context.Context, m Mutation, creds domain.Credentials) (string, error)

	// AssumeIdentity exchanges the ambient identity for a short-lived
	// credential bundle scoped to one account.
	AssumeIdentity(ctx context.Context, accountID string) (domain.Credentials, error)
}

// OrgDirectory enumerates the organization's unit/account hierarchy.
type OrgDirectory interface {
	Tree(ctx context.Context) ([]domain.OrgUnit, error)
}

// Completer is the generative-text backend: one synchronous request per
// call, no session state retained by the backend.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
