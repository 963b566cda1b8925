package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/calldeck/calldeck/internal/rubric"
)

// UpsertReport stores a weekly report, replacing any existing report at the
// same (sdr_id, week_number, year) key. Returns the stored report.
func (db *DB) UpsertReport(r WeeklyReport) (*WeeklyReport, error) {
	avg, err := json.Marshal(r.AvgScores)
	if err != nil {
		return nil, fmt.Errorf("marshaling avg_scores: %w", err)
	}
	comparison, err := json.Marshal(r.ComparisonWithPrevious)
	if err != nil {
		return nil, fmt.Errorf("marshaling comparison: %w", err)
	}
	impact, err := json.Marshal(r.CoachingImpact)
	if err != nil {
		return nil, fmt.Errorf("marshaling coaching_impact: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO weekly_reports
		(company_id, sdr_id, week_number, year, calls_analyzed, avg_scores,
		best_call_id, worst_call_id, comparison_with_previous, coaching_impact, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CompanyID, r.SDRID, r.WeekNumber, r.Year, r.CallsAnalyzed, string(avg),
		r.BestCallID, r.WorstCallID, string(comparison), string(impact), r.Summary,
	)
	if err != nil {
		return nil, err
	}
	return db.GetReport(r.SDRID, r.WeekNumber, r.Year)
}

// GetReport returns the report for (sdr, week, year), or nil if absent.
func (db *DB) GetReport(sdrID string, week, year int) (*WeeklyReport, error) {
	row := db.conn.QueryRow(
		`SELECT id, company_id, sdr_id, week_number, year, calls_analyzed, avg_scores,
		best_call_id, worst_call_id, comparison_with_previous, coaching_impact, summary, generated_at
		FROM weekly_reports WHERE sdr_id = ? AND week_number = ? AND year = ?`,
		sdrID, week, year,
	)
	r, err := scanReport(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ReportFilter narrows QueryReports. CompanyID is required; the rest are
// optional.
type ReportFilter struct {
	CompanyID  string
	SDRID      *string
	WeekNumber *int
	Year       *int
}

// QueryReports returns reports matching the filter, most recent week first
// (year DESC, week DESC) so "last N weeks" trend reads take a prefix.
func (db *DB) QueryReports(f ReportFilter) ([]WeeklyReport, error) {
	query := `SELECT id, company_id, sdr_id, week_number, year, calls_analyzed, avg_scores,
		best_call_id, worst_call_id, comparison_with_previous, coaching_impact, summary, generated_at
		FROM weekly_reports WHERE company_id = ?`
	args := []any{f.CompanyID}
	if f.SDRID != nil {
		query += " AND sdr_id = ?"
		args = append(args, *f.SDRID)
	}
	if f.WeekNumber != nil {
		query += " AND week_number = ?"
		args = append(args, *f.WeekNumber)
	}
	if f.Year != nil {
		query += " AND year = ?"
		args = append(args, *f.Year)
	}
	query += " ORDER BY year DESC, week_number DESC, sdr_id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []WeeklyReport
	for rows.Next() {
		r, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func scanReport(scan func(...any) error) (*WeeklyReport, error) {
	var r WeeklyReport
	var avg, comparison, impact string
	if err := scan(&r.ID, &r.CompanyID, &r.SDRID, &r.WeekNumber, &r.Year,
		&r.CallsAnalyzed, &avg, &r.BestCallID, &r.WorstCallID,
		&comparison, &impact, &r.Summary, &r.GeneratedAt); err != nil {
		return nil, err
	}
	r.AvgScores = rubric.ScoreMap{}
	if err := json.Unmarshal([]byte(avg), &r.AvgScores); err != nil {
		return nil, fmt.Errorf("parsing avg_scores: %w", err)
	}
	r.ComparisonWithPrevious = rubric.ScoreMap{}
	if err := json.Unmarshal([]byte(comparison), &r.ComparisonWithPrevious); err != nil {
		return nil, fmt.Errorf("parsing comparison: %w", err)
	}
	r.CoachingImpact = rubric.ImpactMap{}
	if err := json.Unmarshal([]byte(impact), &r.CoachingImpact); err != nil {
		return nil, fmt.Errorf("parsing coaching_impact: %w", err)
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM sdrs", &s.SDRs},
		{"SELECT COUNT(*) FROM calls", &s.TotalCalls},
		{"SELECT COUNT(*) FROM calls WHERE status = 'completed'", &s.CompletedCalls},
		{"SELECT COUNT(*) FROM calls WHERE status = 'pending'", &s.PendingCalls},
		{"SELECT COUNT(*) FROM call_analyses", &s.Analyses},
		{"SELECT COUNT(*) FROM coaching_items", &s.CoachingItems},
		{"SELECT COUNT(*) FROM coaching_items WHERE status = 'open'", &s.OpenCoaching},
		{"SELECT COUNT(*) FROM weekly_reports", &s.WeeklyReports},
		{"SELECT COUNT(DISTINCT year || '-' || week_number) FROM weekly_reports", &s.ReportedWeeks},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
