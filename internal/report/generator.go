package report

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/calldeck/calldeck/internal/database"
)

// Generate runs aggregate -> compare -> impact -> narrate for one SDR and
// upserts the finished report. Re-running against unchanged source data
// replaces the stored report with identical content.
func (g *Generator) Generate(companyID, sdrID string, week, year int) (*database.WeeklyReport, error) {
	rollup, err := g.Aggregate(companyID, sdrID, week, year)
	if err != nil {
		return nil, err
	}

	prior, err := g.priorReport(rollup)
	if err != nil {
		return nil, err
	}
	comparison := Compare(rollup, prior)

	impact, err := g.AnalyzeImpact(sdrID, companyID, comparison)
	if err != nil {
		return nil, err
	}

	return g.db.UpsertReport(database.WeeklyReport{
		CompanyID:              companyID,
		SDRID:                  sdrID,
		WeekNumber:             week,
		Year:                   year,
		CallsAnalyzed:          rollup.CallsAnalyzed,
		AvgScores:              rollup.AvgScores,
		BestCallID:             rollup.BestCallID,
		WorstCallID:            rollup.WorstCallID,
		ComparisonWithPrevious: comparison,
		CoachingImpact:         impact,
		Summary:                Narrate(rollup, comparison),
	})
}

// SDRFailure records one SDR whose report generation failed.
type SDRFailure struct {
	SDRID string
	Err   error
}

// BatchResult summarizes a company-wide generation run.
type BatchResult struct {
	WeekNumber int
	Year       int
	Generated  int
	Skipped    int // SDRs with no completed calls in the window
	Failures   []SDRFailure
}

// GenerateAll generates reports for every SDR in a company. SDRs with no
// data in the window are skipped, and one SDR's failure never aborts the
// rest of the batch.
func (g *Generator) GenerateAll(companyID string, week, year int) (*BatchResult, error) {
	sdrs, err := g.db.GetSDRsForCompany(companyID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{WeekNumber: week, Year: year}
	for _, sdr := range sdrs {
		_, err := g.Generate(companyID, sdr.ID, week, year)
		switch {
		case errors.Is(err, ErrNoData):
			result.Skipped++
			logrus.WithFields(logrus.Fields{"sdr": sdr.ID, "week": week, "year": year}).
				Debug("no calls in window, skipping")
		case err != nil:
			result.Failures = append(result.Failures, SDRFailure{SDRID: sdr.ID, Err: err})
			logrus.WithFields(logrus.Fields{"sdr": sdr.ID, "week": week, "year": year}).
				WithError(err).Warn("report generation failed")
		default:
			result.Generated++
		}
	}

	logrus.WithFields(logrus.Fields{
		"week": week, "year": year,
		"generated": result.Generated, "skipped": result.Skipped,
		"failed": len(result.Failures),
	}).Info("weekly report batch complete")
	return result, nil
}
