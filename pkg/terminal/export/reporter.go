// Package export renders scan results for the terminal.
package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// Reporter writes a scan summary table followed by the individual
// findings, most severe first within each skill.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(results []domain.SkillResult) error {
	w := tabwriter.NewWriter(c.writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKILL\tFINDINGS\tCRITICAL\tIMPACT/MO\tERRORS")

	var totalFindings int
	var totalImpact float64
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t$%.2f\t%d\n",
			r.Skill, len(r.Findings), r.CriticalCount(), r.TotalImpact(), len(r.Errors))
		totalFindings += len(r.Findings)
		totalImpact += r.TotalImpact()
	}
	fmt.Fprintf(w, "TOTAL\t%d\t\t$%.2f\t\n", totalFindings, totalImpact)
	if err := w.Flush(); err != nil {
		return err
	}

	for _, r := range results {
		for _, f := range sortedBySeverity(r.Findings) {
			if _, err := fmt.Fprintln(c.writer, findingLine(f)); err != nil {
				return err
			}
		}
		for _, e := range r.Errors {
			if _, err := fmt.Fprintf(c.writer, "[ERROR] %s: %s\n", r.Skill, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func findingLine(f domain.Finding) string {
	line := fmt.Sprintf("[%s] %s", strings.ToUpper(string(f.Severity)), f.Title)
	if f.Region != "" {
		line += fmt.Sprintf(" (%s)", f.Region)
	}
	if f.MonthlyImpact > 0 {
		line += fmt.Sprintf(" $%.2f/mo", f.MonthlyImpact)
	}
	return line
}

func sortedBySeverity(findings []domain.Finding) []domain.Finding {
	out := append([]domain.Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
