// Package skills holds the scanning capabilities of the agent and the
// registry that enumerates them. Skills are read-only: they inspect
// provider state through the gateway and emit findings, never mutations.
package skills

import (
	"context"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Skill is one named scanning capability. Scan must isolate per-resource
// failures into the result's Errors and keep going; it only returns early
// when the context is cancelled.
type Skill interface {
	Describe() Descriptor
	Scan(ctx context.Context, scope domain.Scope) domain.SkillResult
}
