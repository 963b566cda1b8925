package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/calldeck/calldeck/internal/rubric"
)

// Narrate derives the report's synopsis from the computed numbers. Pure
// string formatting: the same rollup and comparison always produce the
// same text.
func Narrate(rollup *Rollup, comparison rubric.ScoreMap) string {
	var b strings.Builder

	noun := "calls"
	if rollup.CallsAnalyzed == 1 {
		noun = "call"
	}
	fmt.Fprintf(&b, "Analyzed %d %s with an overall average of %.1f.",
		rollup.CallsAnalyzed, noun, rollup.AvgScores[rubric.Overall])

	strongest, weakest := extremeDimensions(rollup.AvgScores)
	fmt.Fprintf(&b, " Strongest dimension: %s (%.1f). Needs work: %s (%.1f).",
		strongest, rollup.AvgScores[strongest], weakest, rollup.AvgScores[weakest])

	if delta, ok := comparison[rubric.Overall]; ok {
		switch {
		case delta > 0:
			fmt.Fprintf(&b, " Overall score is up %.1f week-over-week.", delta)
		case delta < 0:
			fmt.Fprintf(&b, " Overall score is down %.1f week-over-week.", math.Abs(delta))
		default:
			b.WriteString(" Overall score is flat week-over-week.")
		}
	}

	return b.String()
}

// extremeDimensions returns the highest- and lowest-averaging dimensions.
// Walking the canonical order with strict comparisons breaks ties toward
// the earlier dimension.
func extremeDimensions(avg rubric.ScoreMap) (strongest, weakest string) {
	strongest, weakest = rubric.Dimensions[0], rubric.Dimensions[0]
	for _, dim := range rubric.Dimensions[1:] {
		if avg[dim] > avg[strongest] {
			strongest = dim
		}
		if avg[dim] < avg[weakest] {
			weakest = dim
		}
	}
	return strongest, weakest
}
