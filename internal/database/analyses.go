package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertAnalysis stores a call analysis with its dimension scores in a
// single transaction and marks the parent call completed. Returns the new
// analysis ID.
func (db *DB) InsertAnalysis(a CallAnalysis) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO call_analyses (call_id, overall_score, strengths, weaknesses, summary)
		VALUES (?, ?, ?, ?, ?)`,
		a.CallID, a.OverallScore, a.Strengths, a.Weaknesses, a.Summary,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting analysis: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, ds := range a.Scores {
		quotes, err := json.Marshal(ds.EvidenceQuotes)
		if err != nil {
			return 0, fmt.Errorf("marshaling evidence quotes: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO dimension_scores (analysis_id, dimension, score, justification, evidence_quotes)
			VALUES (?, ?, ?, ?, ?)`,
			id, ds.Dimension, ds.Score, ds.Justification, string(quotes),
		); err != nil {
			return 0, fmt.Errorf("inserting %s score: %w", ds.Dimension, err)
		}
	}

	if _, err := tx.Exec(
		`UPDATE calls SET status = ? WHERE id = ?`, CallCompleted, a.CallID,
	); err != nil {
		return 0, fmt.Errorf("completing call: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetAnalysisByCallID returns the analysis for a call, or nil if absent.
func (db *DB) GetAnalysisByCallID(callID string) (*CallAnalysis, error) {
	row := db.conn.QueryRow(
		`SELECT id, call_id, overall_score, strengths, weaknesses, summary, created_at
		FROM call_analyses WHERE call_id = ?`, callID,
	)
	var a CallAnalysis
	if err := row.Scan(&a.ID, &a.CallID, &a.OverallScore, &a.Strengths,
		&a.Weaknesses, &a.Summary, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT dimension, score, justification, evidence_quotes
		FROM dimension_scores WHERE analysis_id = ? ORDER BY rowid`, a.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ds DimensionScore
		var quotes sql.NullString
		if err := rows.Scan(&ds.Dimension, &ds.Score, &ds.Justification, &quotes); err != nil {
			return nil, err
		}
		if quotes.Valid && quotes.String != "" {
			if err := json.Unmarshal([]byte(quotes.String), &ds.EvidenceQuotes); err != nil {
				return nil, fmt.Errorf("parsing evidence quotes: %w", err)
			}
		}
		a.Scores = append(a.Scores, ds)
	}
	return &a, rows.Err()
}

// GetAnalyzedCalls returns the completed analyses for one SDR's reporting
// week, ordered by (recorded_at, call id) so score tie-breaking is
// deterministic.
func (db *DB) GetAnalyzedCalls(companyID, sdrID string, week, year int) ([]AnalyzedCall, error) {
	rows, err := db.conn.Query(
		`SELECT c.id, c.recorded_at, a.id, a.overall_score, d.dimension, d.score
		FROM calls c
		JOIN call_analyses a ON a.call_id = c.id
		JOIN dimension_scores d ON d.analysis_id = a.id
		WHERE c.company_id = ? AND c.sdr_id = ? AND c.week_number = ? AND c.year = ?
		AND c.status = ?
		ORDER BY c.recorded_at, c.id`,
		companyID, sdrID, week, year, CallCompleted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnalyzedCall
	index := map[string]int{}
	for rows.Next() {
		var callID, recordedAt, dimension string
		var analysisID int64
		var overall float64
		var score int
		if err := rows.Scan(&callID, &recordedAt, &analysisID, &overall, &dimension, &score); err != nil {
			return nil, err
		}
		i, ok := index[callID]
		if !ok {
			out = append(out, AnalyzedCall{
				CallID:       callID,
				RecordedAt:   recordedAt,
				AnalysisID:   analysisID,
				OverallScore: overall,
				Scores:       map[string]int{},
			})
			i = len(out) - 1
			index[callID] = i
		}
		out[i].Scores[dimension] = score
	}
	return out, rows.Err()
}
