package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/de-tools/ops-agent/pkg/skills"
)

// Env bundles what a command invocation needs from the provider: the skill
// registry and a way to discover scannable regions when none are given.
// Commands take a builder as a dependency so tests can swap the gateway out.
type Env struct {
	Registry        *skills.Registry
	DiscoverRegions func(ctx context.Context) ([]string, error)
}

type EnvBuilder func(ctx context.Context, profile string) (*Env, error)

type SkillsCmd struct {
	profile string
	builder EnvBuilder
}

func NewSkillsCmd(builder EnvBuilder) *cobra.Command {
	sc := &SkillsCmd{builder: builder}
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List available skills",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.profile, "profile", "", "AWS profile to use")

	return cmd
}

func (sc *SkillsCmd) run(cmd *cobra.Command, _ []string) error {
	env, err := sc.builder(cmd.Context(), sc.profile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, d := range env.Registry.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.Description)
	}
	return w.Flush()
}
