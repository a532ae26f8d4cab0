package commands

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/ops-agent/pkg/models/domain"
	"github.com/de-tools/ops-agent/pkg/skills"
	"github.com/de-tools/ops-agent/pkg/terminal/export"
)

type recordingSkill struct {
	id string

	mu    sync.Mutex
	scope domain.Scope
}

func (s *recordingSkill) Describe() skills.Descriptor {
	return skills.Descriptor{ID: s.id, Name: s.id}
}

func (s *recordingSkill) Scan(_ context.Context, scope domain.Scope) domain.SkillResult {
	s.mu.Lock()
	s.scope = scope
	s.mu.Unlock()
	return domain.SkillResult{Skill: s.id}
}

func (s *recordingSkill) seenScope() domain.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

func testEnvBuilder(t *testing.T, skill *recordingSkill, discover func(ctx context.Context) ([]string, error)) EnvBuilder {
	t.Helper()
	return func(_ context.Context, _ string) (*Env, error) {
		registry, err := skills.NewRegistry(skill)
		require.NoError(t, err)
		return &Env{Registry: registry, DiscoverRegions: discover}, nil
	}
}

func TestScanDiscoversRegionsWhenUnset(t *testing.T) {
	skill := &recordingSkill{id: "recorder"}
	discovered := false
	builder := testEnvBuilder(t, skill, func(context.Context) ([]string, error) {
		discovered = true
		return []string{"eu-west-1", "eu-north-1"}, nil
	})

	var out bytes.Buffer
	cmd := NewScanCmd(builder, export.NewReporter(&out))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.True(t, discovered)
	assert.Equal(t, []string{"eu-west-1", "eu-north-1"}, skill.seenScope().Regions)
}

func TestScanExplicitRegionsSkipDiscovery(t *testing.T) {
	skill := &recordingSkill{id: "recorder"}
	builder := testEnvBuilder(t, skill, func(context.Context) ([]string, error) {
		t.Fatal("discovery must not run when regions are given")
		return nil, nil
	})

	var out bytes.Buffer
	cmd := NewScanCmd(builder, export.NewReporter(&out))
	cmd.SetArgs([]string{"--regions", "us-west-2"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, []string{"us-west-2"}, skill.seenScope().Regions)
}
