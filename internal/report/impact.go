package report

import "github.com/calldeck/calldeck/internal/rubric"

// AnalyzeImpact cross-references the SDR's all-time coaching history with
// the computed week-over-week deltas. Only dimensions that were coached at
// least once AND have a computable delta appear in the result. Improved is
// strictly delta > 0: a delta of exactly zero is not improvement.
func (g *Generator) AnalyzeImpact(sdrID, companyID string, comparison rubric.ScoreMap) (rubric.ImpactMap, error) {
	history, err := g.db.GetCoachingHistory(sdrID, companyID)
	if err != nil {
		return nil, err
	}

	coached := map[string]bool{}
	for _, item := range history {
		coached[item.Dimension] = true
	}

	impact := rubric.ImpactMap{}
	for dim := range coached {
		delta, ok := comparison[dim]
		if !ok {
			continue // coached, but no baseline to measure against
		}
		impact[dim] = rubric.Impact{
			Coached:  true,
			Delta:    delta,
			Improved: delta > 0,
		}
	}
	return impact, nil
}
