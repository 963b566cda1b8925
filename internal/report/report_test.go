package report

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/rubric"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedSDR(t *testing.T, db *database.DB, id string) {
	t.Helper()
	if err := db.InsertSDR(id, "acme", "SDR "+id, nil); err != nil {
		t.Fatalf("inserting sdr: %v", err)
	}
}

// seedAnalyzedCall inserts a completed call with an analysis whose
// dimension scores follow canonical order.
func seedAnalyzedCall(t *testing.T, db *database.DB, callID, sdrID, recordedAt string, week, year int, overall float64, scores [6]int) {
	t.Helper()
	transcript := "transcript"
	if _, err := db.InsertCall(database.Call{
		ID: callID, CompanyID: "acme", SDRID: sdrID, RecordedAt: recordedAt,
		WeekNumber: week, Year: year, Status: database.CallPending, Transcript: &transcript,
	}); err != nil {
		t.Fatalf("inserting call: %v", err)
	}

	a := database.CallAnalysis{CallID: callID, OverallScore: overall}
	for i, dim := range rubric.Dimensions {
		a.Scores = append(a.Scores, database.DimensionScore{Dimension: dim, Score: scores[i]})
	}
	if _, err := db.InsertAnalysis(a); err != nil {
		t.Fatalf("inserting analysis: %v", err)
	}
}

// seedCoaching adds a coaching item for one dimension of sdr's latest
// analyzed call.
func seedCoaching(t *testing.T, db *database.DB, sdrID, dimension string) {
	t.Helper()
	err := db.InsertCoachingItems([]database.CoachingItem{{
		AnalysisID: 1, SDRID: sdrID, CompanyID: "acme",
		Dimension: dimension, Status: database.CoachingOpen,
	}})
	if err != nil {
		t.Fatalf("inserting coaching item: %v", err)
	}
}

// Three calls with overall 4.0 / 6.0 / 8.0 and opening scores 3, 5, 9.
func seedScenario(t *testing.T, db *database.DB) {
	t.Helper()
	seedSDR(t, db, "s1")
	seedAnalyzedCall(t, db, "call-a", "s1", "2026-02-02", 6, 2026, 4.0, [6]int{3, 4, 4, 4, 4, 5})
	seedAnalyzedCall(t, db, "call-b", "s1", "2026-02-03", 6, 2026, 6.0, [6]int{5, 6, 6, 6, 6, 7})
	seedAnalyzedCall(t, db, "call-c", "s1", "2026-02-04", 6, 2026, 8.0, [6]int{9, 8, 8, 8, 7, 8})
}

func TestAggregateScenario(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db)

	rollup, err := NewGenerator(db).Aggregate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rollup.CallsAnalyzed != 3 {
		t.Errorf("expected 3 calls, got %d", rollup.CallsAnalyzed)
	}
	if got := rollup.AvgScores[rubric.Opening]; got != 5.7 {
		t.Errorf("expected opening avg 5.7, got %v", got)
	}
	if rollup.BestCallID == nil || *rollup.BestCallID != "call-c" {
		t.Errorf("expected best call-c, got %v", rollup.BestCallID)
	}
	if rollup.WorstCallID == nil || *rollup.WorstCallID != "call-a" {
		t.Errorf("expected worst call-a, got %v", rollup.WorstCallID)
	}
}

func TestAggregateOverallIsMeanOfDimensionAverages(t *testing.T) {
	db := openTestDB(t)
	seedSDR(t, db, "s1")
	// Stored per-call overalls are deliberately wrong; the rollup must
	// ignore them and derive overall from the dimension averages.
	seedAnalyzedCall(t, db, "c1", "s1", "2026-02-02", 6, 2026, 1.0, [6]int{4, 4, 4, 4, 4, 4})
	seedAnalyzedCall(t, db, "c2", "s1", "2026-02-03", 6, 2026, 1.0, [6]int{6, 6, 6, 6, 6, 6})

	rollup, err := NewGenerator(db).Aggregate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rollup.AvgScores[rubric.Overall]; got != 5.0 {
		t.Errorf("expected overall 5.0 from dimension averages, got %v", got)
	}
}

func TestAggregateEmptyWindow(t *testing.T) {
	db := openTestDB(t)
	seedSDR(t, db, "s1")

	_, err := NewGenerator(db).Aggregate("acme", "s1", 6, 2026)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestAggregateInvalidWeek(t *testing.T) {
	db := openTestDB(t)
	for _, bad := range [][2]int{{0, 2026}, {53, 2026}, {6, 99}} {
		if _, err := NewGenerator(db).Aggregate("acme", "s1", bad[0], bad[1]); err == nil {
			t.Errorf("expected error for week %d/%d", bad[0], bad[1])
		}
	}
}

func TestAggregateMissingDimensionFailsLoudly(t *testing.T) {
	db := openTestDB(t)
	seedSDR(t, db, "s1")

	transcript := "transcript"
	if _, err := db.InsertCall(database.Call{
		ID: "c1", CompanyID: "acme", SDRID: "s1", RecordedAt: "2026-02-02",
		WeekNumber: 6, Year: 2026, Status: database.CallPending, Transcript: &transcript,
	}); err != nil {
		t.Fatalf("inserting call: %v", err)
	}
	// Analysis with tone missing: a data-integrity failure, never a
	// zero-default.
	a := database.CallAnalysis{CallID: "c1", OverallScore: 6.0}
	for _, dim := range rubric.Dimensions[:5] {
		a.Scores = append(a.Scores, database.DimensionScore{Dimension: dim, Score: 6})
	}
	if _, err := db.InsertAnalysis(a); err != nil {
		t.Fatalf("inserting analysis: %v", err)
	}

	_, err := NewGenerator(db).Aggregate("acme", "s1", 6, 2026)
	var missing *MissingDimensionError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDimensionError, got %v", err)
	}
	if missing.Dimension != rubric.Tone || missing.CallID != "c1" {
		t.Errorf("unexpected error detail: %+v", missing)
	}
}

func TestAggregateTieBreaksByQueryOrder(t *testing.T) {
	db := openTestDB(t)
	seedSDR(t, db, "s1")
	seedAnalyzedCall(t, db, "c1", "s1", "2026-02-02", 6, 2026, 6.0, [6]int{6, 6, 6, 6, 6, 6})
	seedAnalyzedCall(t, db, "c2", "s1", "2026-02-03", 6, 2026, 6.0, [6]int{6, 6, 6, 6, 6, 6})

	rollup, err := NewGenerator(db).Aggregate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// All overalls tie: the first call in (recorded_at, id) order wins both.
	if *rollup.BestCallID != "c1" || *rollup.WorstCallID != "c1" {
		t.Errorf("expected c1 for both, got best=%s worst=%s", *rollup.BestCallID, *rollup.WorstCallID)
	}
}

func TestCompareNilPrior(t *testing.T) {
	rollup := &Rollup{AvgScores: rubric.ScoreMap{rubric.Overall: 6.0}}
	deltas := Compare(rollup, nil)
	if len(deltas) != 0 {
		t.Errorf("expected empty map, got %v", deltas)
	}
}

func TestCompareDeltas(t *testing.T) {
	rollup := &Rollup{AvgScores: rubric.ScoreMap{
		rubric.Opening: 5.0,
		rubric.Closing: 6.0,
		rubric.Overall: 6.4,
	}}
	prior := &database.WeeklyReport{AvgScores: rubric.ScoreMap{
		rubric.Opening: 5.0,
		rubric.Overall: 6.0,
		// no closing baseline
	}}

	deltas := Compare(rollup, prior)
	if deltas[rubric.Overall] != 0.4 {
		t.Errorf("expected overall delta 0.4, got %v", deltas[rubric.Overall])
	}
	if deltas[rubric.Opening] != 0 {
		t.Errorf("expected opening delta 0, got %v", deltas[rubric.Opening])
	}
	if _, ok := deltas[rubric.Closing]; ok {
		t.Error("expected closing omitted without a baseline, not zero-filled")
	}
}

func TestGenerateWeekOneLooksAtPriorYear(t *testing.T) {
	db := openTestDB(t)
	seedSDR(t, db, "s1")

	// Prior report persisted at week 52 of the previous year.
	if _, err := db.UpsertReport(database.WeeklyReport{
		CompanyID: "acme", SDRID: "s1", WeekNumber: 52, Year: 2025,
		CallsAnalyzed:          1,
		AvgScores:              rubric.ScoreMap{rubric.Opening: 4.0, rubric.Discovery: 4.0, rubric.ValueProp: 4.0, rubric.Objection: 4.0, rubric.Closing: 4.0, rubric.Tone: 4.0, rubric.Overall: 4.0},
		ComparisonWithPrevious: rubric.ScoreMap{},
		CoachingImpact:         rubric.ImpactMap{},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seedAnalyzedCall(t, db, "c1", "s1", "2026-01-01", 1, 2026, 6.0, [6]int{6, 6, 6, 6, 6, 6})

	rep, err := NewGenerator(db).Generate("acme", "s1", 1, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ComparisonWithPrevious[rubric.Overall] != 2.0 {
		t.Errorf("expected delta 2.0 against week 52/2025, got %v", rep.ComparisonWithPrevious[rubric.Overall])
	}
}

func TestAnalyzeImpact(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db)
	seedCoaching(t, db, "s1", rubric.Closing)
	seedCoaching(t, db, "s1", rubric.Tone)

	g := NewGenerator(db)
	comparison := rubric.ScoreMap{
		rubric.Closing:   -0.2,
		rubric.Discovery: 0.5, // improved, but never coached
		rubric.Overall:   0.1,
	}

	impact, err := g.AnalyzeImpact("s1", "acme", comparison)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closing, ok := impact[rubric.Closing]
	if !ok {
		t.Fatal("expected closing in impact map")
	}
	if !closing.Coached || closing.Delta != -0.2 || closing.Improved {
		t.Errorf("unexpected closing impact: %+v", closing)
	}
	if _, ok := impact[rubric.Discovery]; ok {
		t.Error("uncoached dimension must not appear, even if it improved")
	}
	if _, ok := impact[rubric.Tone]; ok {
		t.Error("coached dimension without a delta must be omitted")
	}
}

func TestAnalyzeImpactZeroDeltaNotImproved(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db)
	seedCoaching(t, db, "s1", rubric.Opening)

	impact, err := NewGenerator(db).AnalyzeImpact("s1", "acme", rubric.ScoreMap{rubric.Opening: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if impact[rubric.Opening].Improved {
		t.Error("delta of exactly 0 is not improvement")
	}
}

func TestNarrate(t *testing.T) {
	rollup := &Rollup{
		CallsAnalyzed: 3,
		AvgScores: rubric.ScoreMap{
			rubric.Opening: 5.7, rubric.Discovery: 6.0, rubric.ValueProp: 6.0,
			rubric.Objection: 6.0, rubric.Closing: 5.7, rubric.Tone: 6.7,
			rubric.Overall: 6.0,
		},
	}

	got := Narrate(rollup, rubric.ScoreMap{rubric.Overall: 0.4})
	want := "Analyzed 3 calls with an overall average of 6.0. Strongest dimension: tone (6.7). Needs work: opening (5.7). Overall score is up 0.4 week-over-week."
	if got != want {
		t.Errorf("unexpected narration:\n got %q\nwant %q", got, want)
	}

	// Same inputs, same text.
	if again := Narrate(rollup, rubric.ScoreMap{rubric.Overall: 0.4}); again != got {
		t.Error("expected deterministic narration")
	}
}

func TestNarrateDirections(t *testing.T) {
	rollup := &Rollup{
		CallsAnalyzed: 1,
		AvgScores: rubric.ScoreMap{
			rubric.Opening: 6.0, rubric.Discovery: 6.0, rubric.ValueProp: 6.0,
			rubric.Objection: 6.0, rubric.Closing: 6.0, rubric.Tone: 6.0,
			rubric.Overall: 6.0,
		},
	}

	down := Narrate(rollup, rubric.ScoreMap{rubric.Overall: -0.2})
	if want := "down 0.2 week-over-week"; !strings.Contains(down, want) {
		t.Errorf("expected %q in %q", want, down)
	}

	flat := Narrate(rollup, rubric.ScoreMap{rubric.Overall: 0})
	if want := "flat week-over-week"; !strings.Contains(flat, want) {
		t.Errorf("expected %q in %q", want, flat)
	}

	none := Narrate(rollup, rubric.ScoreMap{})
	if strings.Contains(none, "week-over-week") {
		t.Errorf("expected no WoW clause without a baseline, got %q", none)
	}

	// All dimensions tie: canonical order decides both extremes.
	if !strings.Contains(flat, "Strongest dimension: opening") || !strings.Contains(flat, "Needs work: opening") {
		t.Errorf("expected canonical tie-break, got %q", flat)
	}
	if !strings.Contains(flat, "Analyzed 1 call ") {
		t.Errorf("expected singular wording, got %q", flat)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db)
	seedCoaching(t, db, "s1", rubric.Closing)

	g := NewGenerator(db)
	first, err := g.Generate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.Generate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if canonical(t, first) != canonical(t, second) {
		t.Errorf("expected identical reports:\n%s\n%s", canonical(t, first), canonical(t, second))
	}

	reports, _ := db.QueryReports(database.ReportFilter{CompanyID: "acme"})
	if len(reports) != 1 {
		t.Errorf("expected a single stored report, got %d", len(reports))
	}
}

// canonical serializes the report's content, ignoring the row ID and
// generation timestamp.
func canonical(t *testing.T, r *database.WeeklyReport) string {
	t.Helper()
	clone := *r
	clone.ID = 0
	clone.GeneratedAt = nil
	data, err := json.Marshal(&clone)
	if err != nil {
		t.Fatalf("marshaling report: %v", err)
	}
	return string(data)
}

func TestGenerateAllSkipsAndContinues(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db) // s1 has calls in week 6
	seedSDR(t, db, "s2") // s2 has none

	result, err := NewGenerator(db).GenerateAll("acme", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Generated != 1 {
		t.Errorf("expected 1 generated, got %d", result.Generated)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
	if len(result.Failures) != 0 {
		t.Errorf("expected no failures, got %v", result.Failures)
	}
}

func TestGenerateStoresNarrative(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db)

	rep, err := NewGenerator(db).Generate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Summary == "" {
		t.Error("expected non-empty summary")
	}
	if len(rep.ComparisonWithPrevious) != 0 {
		t.Errorf("expected empty comparison without a prior report, got %v", rep.ComparisonWithPrevious)
	}
}

func TestMarkdownRendersReport(t *testing.T) {
	db := openTestDB(t)
	seedScenario(t, db)

	rep, err := NewGenerator(db).Generate("acme", "s1", 6, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := Markdown(rep, "Jordan")
	for _, want := range []string{"# Jordan — W06 2026", "| opening | 5.7 |", "Best call: `call-c`"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in markdown body:\n%s", want, body)
		}
	}
}
