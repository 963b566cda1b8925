package database

import "database/sql"

// InsertSDR inserts an SDR if it does not already exist.
func (db *DB) InsertSDR(id, companyID, name string, email *string) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO sdrs (id, company_id, name, email) VALUES (?, ?, ?, ?)`,
		id, companyID, name, email,
	)
	return err
}

// GetSDRsForCompany returns all SDRs belonging to a company, ordered by name.
func (db *DB) GetSDRsForCompany(companyID string) ([]SDR, error) {
	rows, err := db.conn.Query(
		`SELECT id, company_id, name, email, created_at FROM sdrs
		WHERE company_id = ? ORDER BY name, id`, companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sdrs []SDR
	for rows.Next() {
		var s SDR
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		sdrs = append(sdrs, s)
	}
	return sdrs, rows.Err()
}

// GetSDR returns the SDR with the given ID, or nil.
func (db *DB) GetSDR(id string) (*SDR, error) {
	row := db.conn.QueryRow(
		`SELECT id, company_id, name, email, created_at FROM sdrs WHERE id = ?`, id,
	)
	var s SDR
	if err := row.Scan(&s.ID, &s.CompanyID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindSDRByName returns the SDR with the given name in a company, or nil.
func (db *DB) FindSDRByName(companyID, name string) (*SDR, error) {
	row := db.conn.QueryRow(
		`SELECT id, company_id, name, email, created_at FROM sdrs
		WHERE company_id = ? AND name = ?`, companyID, name,
	)
	var s SDR
	if err := row.Scan(&s.ID, &s.CompanyID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// InsertCall inserts a call. Duplicate IDs are ignored; returns true when a
// new row was written.
func (db *DB) InsertCall(c Call) (bool, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO calls
		(id, company_id, sdr_id, recorded_at, week_number, year, status, transcript)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CompanyID, c.SDRID, c.RecordedAt, c.WeekNumber, c.Year, c.Status, c.Transcript,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// GetCallByID returns a call by ID, or nil if absent.
func (db *DB) GetCallByID(id string) (*Call, error) {
	row := db.conn.QueryRow(
		`SELECT id, company_id, sdr_id, recorded_at, week_number, year, status, transcript, created_at
		FROM calls WHERE id = ?`, id,
	)
	var c Call
	if err := row.Scan(&c.ID, &c.CompanyID, &c.SDRID, &c.RecordedAt, &c.WeekNumber,
		&c.Year, &c.Status, &c.Transcript, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetPendingCalls returns calls awaiting analysis for a company, oldest
// recording first.
func (db *DB) GetPendingCalls(companyID string) ([]Call, error) {
	rows, err := db.conn.Query(
		`SELECT id, company_id, sdr_id, recorded_at, week_number, year, status, transcript, created_at
		FROM calls WHERE company_id = ? AND status = ?
		ORDER BY recorded_at, id`, companyID, CallPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalls(rows)
}

// UpdateCallStatus transitions a call's processing status.
func (db *DB) UpdateCallStatus(id, status string) error {
	_, err := db.conn.Exec(`UPDATE calls SET status = ? WHERE id = ?`, status, id)
	return err
}

func scanCalls(rows *sql.Rows) ([]Call, error) {
	var calls []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.SDRID, &c.RecordedAt, &c.WeekNumber,
			&c.Year, &c.Status, &c.Transcript, &c.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
