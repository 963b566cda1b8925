// Package report is the weekly aggregation and comparison engine: it rolls
// call analyses up into per-SDR weekly reports, diffs them against the
// prior week and attributes score movement to coaching.
package report

import (
	"fmt"

	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/rubric"
)

// Rollup is the in-memory aggregate for one SDR and week, before
// comparison and persistence.
type Rollup struct {
	CompanyID     string
	SDRID         string
	WeekNumber    int
	Year          int
	CallsAnalyzed int
	AvgScores     rubric.ScoreMap
	BestCallID    *string
	WorstCallID   *string
}

// Generator computes and persists weekly reports against one database.
type Generator struct {
	db *database.DB
}

// NewGenerator creates a report generator.
func NewGenerator(db *database.DB) *Generator {
	return &Generator{db: db}
}

// Aggregate computes the weekly rollup for one SDR. Returns ErrNoData when
// the window holds no completed analyses; store errors propagate unchanged.
func (g *Generator) Aggregate(companyID, sdrID string, week, year int) (*Rollup, error) {
	if !database.ValidWeek(week, year) {
		return nil, fmt.Errorf("invalid reporting week %d/%d", week, year)
	}

	calls, err := g.db.GetAnalyzedCalls(companyID, sdrID, week, year)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("sdr %s week %d/%d: %w", sdrID, week, year, ErrNoData)
	}

	avg := rubric.ScoreMap{}
	var dimensionSum float64
	for _, dim := range rubric.Dimensions {
		var sum int
		for _, c := range calls {
			score, ok := c.Scores[dim]
			if !ok {
				return nil, &MissingDimensionError{CallID: c.CallID, Dimension: dim}
			}
			sum += score
		}
		mean := rubric.Round1(float64(sum) / float64(len(calls)))
		avg[dim] = mean
		dimensionSum += mean
	}
	// Overall is the mean of the six dimension averages, not of the calls'
	// stored overall scores, so it always agrees with the breakdown above.
	avg[rubric.Overall] = rubric.Round1(dimensionSum / float64(len(rubric.Dimensions)))

	best, worst := calls[0], calls[0]
	for _, c := range calls[1:] {
		// Strict comparisons keep the first call in (recorded_at, id) order
		// on ties.
		if c.OverallScore > best.OverallScore {
			best = c
		}
		if c.OverallScore < worst.OverallScore {
			worst = c
		}
	}
	bestID, worstID := best.CallID, worst.CallID

	return &Rollup{
		CompanyID:     companyID,
		SDRID:         sdrID,
		WeekNumber:    week,
		Year:          year,
		CallsAnalyzed: len(calls),
		AvgScores:     avg,
		BestCallID:    &bestID,
		WorstCallID:   &worstID,
	}, nil
}
