package database

import "github.com/calldeck/calldeck/internal/rubric"

// SDR is a coached sales development representative.
type SDR struct {
	ID        string
	CompanyID string
	Name      string
	Email     *string
	CreatedAt *string
}

// Call statuses.
const (
	CallPending   = "pending"
	CallCompleted = "completed"
	CallFailed    = "failed"
)

// Call represents an uploaded sales call.
type Call struct {
	ID         string
	CompanyID  string
	SDRID      string
	RecordedAt string // YYYY-MM-DD
	WeekNumber int
	Year       int
	Status     string // "pending", "completed" or "failed"
	Transcript *string
	CreatedAt  *string
}

// DimensionScore is one rubric dimension's score within an analysis.
type DimensionScore struct {
	Dimension      string
	Score          int
	Justification  string
	EvidenceQuotes []string
}

// CallAnalysis holds the scored analysis of one completed call.
// Immutable once created; removed only by cascading call deletion.
type CallAnalysis struct {
	ID           int64
	CallID       string
	OverallScore float64
	Strengths    string
	Weaknesses   string
	Summary      string
	Scores       []DimensionScore // canonical dimension order
	CreatedAt    *string
}

// Coaching item statuses.
const (
	CoachingOpen       = "open"
	CoachingInProgress = "in_progress"
	CoachingCompleted  = "completed"
)

// CoachingItem is a coaching action item tied to one analysis dimension.
type CoachingItem struct {
	ID             int64
	AnalysisID     int64
	SDRID          string
	CompanyID      string
	Dimension      string
	Recommendation string
	Status         string
	CreatedAt      *string
	UpdatedAt      *string
}

// AnalyzedCall pairs a completed call with its analysis scores, the
// aggregation engine's read model.
type AnalyzedCall struct {
	CallID       string
	RecordedAt   string
	AnalysisID   int64
	OverallScore float64
	Scores       map[string]int // dimension -> score
}

// WeeklyReport is the persisted rollup for one SDR and ISO week.
// Uniquely keyed by (sdr_id, week_number, year).
type WeeklyReport struct {
	ID                     int64
	CompanyID              string
	SDRID                  string
	WeekNumber             int
	Year                   int
	CallsAnalyzed          int
	AvgScores              rubric.ScoreMap
	BestCallID             *string
	WorstCallID            *string
	ComparisonWithPrevious rubric.ScoreMap
	CoachingImpact         rubric.ImpactMap
	Summary                string
	GeneratedAt            *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	SDRs           int
	TotalCalls     int
	CompletedCalls int
	PendingCalls   int
	Analyses       int
	CoachingItems  int
	OpenCoaching   int
	WeeklyReports  int
	ReportedWeeks  int
}
