package database

import "fmt"

// InsertCoachingItems stores coaching action items for an analysis, one per
// dimension.
func (db *DB) InsertCoachingItems(items []CoachingItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		if _, err := tx.Exec(
			`INSERT INTO coaching_items (analysis_id, sdr_id, company_id, dimension, recommendation, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.AnalysisID, item.SDRID, item.CompanyID, item.Dimension,
			item.Recommendation, item.Status,
		); err != nil {
			return fmt.Errorf("inserting coaching item for %s: %w", item.Dimension, err)
		}
	}
	return tx.Commit()
}

// GetCoachingHistory returns the full coaching ledger for an SDR, all-time.
// Impact analysis only needs dimension and status, ordered oldest first.
func (db *DB) GetCoachingHistory(sdrID, companyID string) ([]CoachingItem, error) {
	rows, err := db.conn.Query(
		`SELECT id, analysis_id, sdr_id, company_id, dimension, recommendation, status, created_at, updated_at
		FROM coaching_items WHERE sdr_id = ? AND company_id = ?
		ORDER BY created_at, id`, sdrID, companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CoachingItem
	for rows.Next() {
		var item CoachingItem
		if err := rows.Scan(&item.ID, &item.AnalysisID, &item.SDRID, &item.CompanyID,
			&item.Dimension, &item.Recommendation, &item.Status,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateCoachingStatus transitions a coaching item's status.
func (db *DB) UpdateCoachingStatus(id int64, status string) error {
	switch status {
	case CoachingOpen, CoachingInProgress, CoachingCompleted:
	default:
		return fmt.Errorf("invalid coaching status %q", status)
	}
	_, err := db.conn.Exec(
		`UPDATE coaching_items SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	return err
}
