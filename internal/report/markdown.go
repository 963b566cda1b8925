package report

import (
	"fmt"
	"strings"

	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/rubric"
)

// Markdown renders a stored report as a markdown document for the
// dashboard and exports.
func Markdown(r *database.WeeklyReport, sdrName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — %s\n\n", sdrName, database.FormatWeekDisplay(r.WeekNumber, r.Year))
	fmt.Fprintf(&b, "%s\n\n", r.Summary)

	b.WriteString("## Dimension averages\n\n")
	b.WriteString("| Dimension | Average | WoW |\n|---|---|---|\n")
	for _, dim := range append(append([]string{}, rubric.Dimensions...), rubric.Overall) {
		avg, ok := r.AvgScores[dim]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %.1f | %s |\n", dim, avg, formatDelta(r.ComparisonWithPrevious, dim))
	}
	b.WriteString("\n")

	if r.BestCallID != nil {
		fmt.Fprintf(&b, "Best call: `%s`", *r.BestCallID)
		if r.WorstCallID != nil {
			fmt.Fprintf(&b, " · Worst call: `%s`", *r.WorstCallID)
		}
		b.WriteString("\n\n")
	}

	if len(r.CoachingImpact) > 0 {
		b.WriteString("## Coaching impact\n\n")
		for _, dim := range rubric.Dimensions {
			impact, ok := r.CoachingImpact[dim]
			if !ok {
				continue
			}
			verdict := "no improvement yet"
			if impact.Improved {
				verdict = "improved"
			}
			fmt.Fprintf(&b, "- **%s**: coached, %+.1f this week (%s)\n", dim, impact.Delta, verdict)
		}
	}

	return b.String()
}

func formatDelta(comparison rubric.ScoreMap, dim string) string {
	delta, ok := comparison[dim]
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%+.1f", delta)
}
