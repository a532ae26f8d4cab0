package skills

import (
	"fmt"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// Registry is the closed set of skills known to the process. It is built
// once at startup and never mutated afterwards; registration order defines
// display order.
type Registry struct {
	order  []string
	skills map[string]Skill
}

func NewRegistry(skills ...Skill) (*Registry, error) {
	if len(skills) == 0 {
		return nil, fmt.Errorf("at least one skill must be provided")
	}

	r := &Registry{
		skills: make(map[string]Skill, len(skills)),
	}
	for _, s := range skills {
		id := s.Describe().ID
		if id == "" {
			return nil, fmt.Errorf("skill id cannot be empty")
		}
		if _, exists := r.skills[id]; exists {
			return nil, fmt.Errorf("duplicate skill id: %s", id)
		}
		r.skills[id] = s
		r.order = append(r.order, id)
	}
	return r, nil
}

// List returns descriptors in registration order.
func (r *Registry) List() []Descriptor {
	descriptors := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		descriptors = append(descriptors, r.skills[id].Describe())
	}
	return descriptors
}

func (r *Registry) Get(id string) (Skill, error) {
	s, exists := r.skills[id]
	if !exists {
		return nil, domain.NewError(domain.KindNotFound, "unknown skill: %s", id)
	}
	return s, nil
}

// IDs returns all skill ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}
