package report

import (
	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/rubric"
)

// Compare computes signed deltas between a rollup and the prior week's
// stored report. A nil prior (first tracked week, or a gap) yields an empty
// map; keys missing from the prior are omitted rather than zero-filled, so
// "no baseline" stays distinct from "no change".
func Compare(rollup *Rollup, prior *database.WeeklyReport) rubric.ScoreMap {
	deltas := rubric.ScoreMap{}
	if prior == nil {
		return deltas
	}
	for key, current := range rollup.AvgScores {
		if previous, ok := prior.AvgScores[key]; ok {
			deltas[key] = rubric.Round1(current - previous)
		}
	}
	return deltas
}

// priorReport looks up the persisted report for the week immediately before
// the rollup's week, rolling over the year boundary. It never recomputes
// the prior rollup, so reports must be generated in chronological order for
// comparisons to be meaningful.
func (g *Generator) priorReport(rollup *Rollup) (*database.WeeklyReport, error) {
	week, year := database.PreviousWeek(rollup.WeekNumber, rollup.Year)
	return g.db.GetReport(rollup.SDRID, week, year)
}
