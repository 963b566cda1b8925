// Package export writes weekly reports out as an XLSX workbook for
// managers who live in spreadsheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/rubric"
)

const sheetName = "Weekly Reports"

// Workbook writes every weekly report for a company to an XLSX file at
// path, one row per (SDR, week), most recent week first.
func Workbook(db *database.DB, companyID, path string) (int, error) {
	reports, err := db.QueryReports(database.ReportFilter{CompanyID: companyID})
	if err != nil {
		return 0, err
	}

	names, err := sdrNames(db, companyID)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), sheetName)

	header := []any{"SDR", "Week", "Year", "Calls"}
	for _, dim := range rubric.Dimensions {
		header = append(header, dim)
	}
	header = append(header, rubric.Overall, "WoW overall", "Best call", "Worst call", "Summary")
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return 0, err
	}

	for i, r := range reports {
		name := names[r.SDRID]
		if name == "" {
			name = r.SDRID
		}
		row := []any{name, r.WeekNumber, r.Year, r.CallsAnalyzed}
		for _, dim := range rubric.Dimensions {
			row = append(row, r.AvgScores[dim])
		}
		row = append(row, r.AvgScores[rubric.Overall])
		if delta, ok := r.ComparisonWithPrevious[rubric.Overall]; ok {
			row = append(row, delta)
		} else {
			row = append(row, "")
		}
		row = append(row, deref(r.BestCallID), deref(r.WorstCallID), r.Summary)

		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return 0, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("saving workbook: %w", err)
	}
	return len(reports), nil
}

func sdrNames(db *database.DB, companyID string) (map[string]string, error) {
	sdrs, err := db.GetSDRsForCompany(companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(sdrs))
	for _, s := range sdrs {
		names[s.ID] = s.Name
	}
	return names, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
