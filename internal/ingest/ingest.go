// Package ingest imports call sheets: XLSX workbooks with one row per
// recorded call (SDR, recording date, transcript).
package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/calldeck/calldeck/internal/database"
)

// Row is one call sheet entry.
type Row struct {
	CallID     string
	SDRName    string
	RecordedAt string // YYYY-MM-DD
	Transcript string
}

// Result summarizes an import run.
type Result struct {
	TotalRows  int
	NewCalls   int
	Duplicates int
	Skipped    int
}

// LoadSheet reads the first sheet of an XLSX call sheet, auto-detecting
// columns by header keywords.
func LoadSheet(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening call sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("call sheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("call sheet has no data rows")
	}

	idIdx, sdrIdx, dateIdx, textIdx := detectColumns(rows[0])
	if sdrIdx < 0 || dateIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("call sheet missing required columns (need sdr, date, transcript; got %v)", rows[0])
	}

	var out []Row
	for _, r := range rows[1:] {
		row := Row{}
		if idIdx >= 0 && idIdx < len(r) {
			row.CallID = strings.TrimSpace(r[idIdx])
		}
		if sdrIdx < len(r) {
			row.SDRName = strings.TrimSpace(r[sdrIdx])
		}
		if dateIdx < len(r) {
			row.RecordedAt = strings.TrimSpace(r[dateIdx])
		}
		if textIdx < len(r) {
			row.Transcript = r[textIdx]
		}
		out = append(out, row)
	}
	return out, nil
}

// detectColumns finds column indexes by header heuristics.
func detectColumns(header []string) (idIdx, sdrIdx, dateIdx, textIdx int) {
	idIdx, sdrIdx, dateIdx, textIdx = -1, -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript"):
			if textIdx == -1 {
				textIdx = i
			}
		case strings.Contains(l, "sdr") || strings.Contains(l, "rep") || strings.Contains(l, "agent"):
			if sdrIdx == -1 {
				sdrIdx = i
			}
		case strings.Contains(l, "date") || strings.Contains(l, "recorded"):
			if dateIdx == -1 {
				dateIdx = i
			}
		case strings.Contains(l, "call") && strings.Contains(l, "id") || l == "id":
			if idIdx == -1 {
				idIdx = i
			}
		}
	}
	return idIdx, sdrIdx, dateIdx, textIdx
}

// Importer writes call sheet rows into the store for one company.
type Importer struct {
	db        *database.DB
	companyID string
}

// NewImporter creates an importer for a company.
func NewImporter(db *database.DB, companyID string) *Importer {
	return &Importer{db: db, companyID: companyID}
}

// ImportFile loads an XLSX call sheet and inserts its calls as pending,
// creating SDRs on first sight. Rows with a known call ID are counted as
// duplicates; unusable rows are skipped.
func (im *Importer) ImportFile(path string) (*Result, error) {
	rows, err := LoadSheet(path)
	if err != nil {
		return nil, err
	}
	return im.importRows(rows)
}

func (im *Importer) importRows(rows []Row) (*Result, error) {
	result := &Result{TotalRows: len(rows)}
	for _, row := range rows {
		if row.SDRName == "" || strings.TrimSpace(row.Transcript) == "" {
			result.Skipped++
			continue
		}
		recorded, err := database.ParseRecordedAt(row.RecordedAt)
		if err != nil {
			logrus.WithField("sdr", row.SDRName).WithError(err).Warn("skipping row with bad date")
			result.Skipped++
			continue
		}

		sdr, err := im.db.FindSDRByName(im.companyID, row.SDRName)
		if err != nil {
			return nil, err
		}
		if sdr == nil {
			sdr = &database.SDR{ID: uuid.New().String(), CompanyID: im.companyID, Name: row.SDRName}
			if err := im.db.InsertSDR(sdr.ID, sdr.CompanyID, sdr.Name, nil); err != nil {
				return nil, err
			}
		}

		callID := row.CallID
		if callID == "" {
			callID = uuid.New().String()
		}
		week, year := database.WeekOf(recorded)
		transcript := row.Transcript
		inserted, err := im.db.InsertCall(database.Call{
			ID:         callID,
			CompanyID:  im.companyID,
			SDRID:      sdr.ID,
			RecordedAt: recorded.Format("2006-01-02"),
			WeekNumber: week,
			Year:       year,
			Status:     database.CallPending,
			Transcript: &transcript,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			result.NewCalls++
		} else {
			result.Duplicates++
		}
	}
	return result, nil
}
