// Package analyze scores pending call transcripts with an LLM and stores
// the resulting analyses and coaching items.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/llm"
	"github.com/calldeck/calldeck/internal/rubric"
)

const scorecardPrompt = `You are a sales-call coach reviewing an SDR's cold call.

Score the call on six dimensions, each 1-10:
- opening: how well the rep opened the call and earned attention
- discovery: quality of discovery questions and listening
- value_prop: clarity and relevance of the value proposition
- objection: handling of objections and pushback
- closing: securing a concrete next step
- tone: pacing, confidence and rapport

Transcript:
"""%s"""

Respond with ONLY this JSON:
{
    "dimensions": {
        "opening":   {"score": 1-10, "justification": "one sentence", "evidence_quotes": ["verbatim quote"]},
        "discovery": {"score": 1-10, "justification": "one sentence", "evidence_quotes": ["verbatim quote"]},
        "value_prop": {"score": 1-10, "justification": "one sentence", "evidence_quotes": ["verbatim quote"]},
        "objection": {"score": 1-10, "justification": "one sentence", "evidence_quotes": ["verbatim quote"]},
        "closing":   {"score": 1-10, "justification": "one sentence", "evidence_quotes": ["verbatim quote"]},
        "tone":      {"score": 1-10, "justification": "one sentence", "evidence_quotes": ["verbatim quote"]}
    },
    "strengths": "2-3 sentences on what went well",
    "weaknesses": "2-3 sentences on what to improve",
    "summary": "one-paragraph call summary",
    "coaching": {"opening": "one actionable tip", "discovery": "...", "value_prop": "...", "objection": "...", "closing": "...", "tone": "..."}
}`

// scorecard is the JSON shape the prompt asks for.
type scorecard struct {
	Dimensions map[string]struct {
		Score          int      `json:"score"`
		Justification  string   `json:"justification"`
		EvidenceQuotes []string `json:"evidence_quotes"`
	} `json:"dimensions"`
	Strengths  string            `json:"strengths"`
	Weaknesses string            `json:"weaknesses"`
	Summary    string            `json:"summary"`
	Coaching   map[string]string `json:"coaching"`
}

// Result holds the results of an analysis run.
type Result struct {
	Processed int
	Failed    int
}

// Analyzer scores pending calls for a company.
type Analyzer struct {
	db        *database.DB
	provider  llm.Provider
	maxTokens int
	maxRetry  time.Duration
}

// NewAnalyzer creates a call analyzer.
func NewAnalyzer(db *database.DB, provider llm.Provider, maxTokens int) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Analyzer{db: db, provider: provider, maxTokens: maxTokens, maxRetry: 2 * time.Minute}
}

// AnalyzeCalls scores every pending call for a company. Failed calls are
// marked failed and do not block the rest of the batch.
func (a *Analyzer) AnalyzeCalls(ctx context.Context, companyID string) *Result {
	r := &Result{}
	if a.provider == nil {
		logrus.Warn("no LLM provider available for call analysis")
		return r
	}

	calls, err := a.db.GetPendingCalls(companyID)
	if err != nil {
		logrus.WithError(err).Error("listing pending calls")
		return r
	}
	if len(calls) == 0 {
		logrus.Info("no calls pending analysis")
		return r
	}

	for _, call := range calls {
		if err := a.analyzeCall(ctx, call); err != nil {
			logrus.WithField("call", call.ID).WithError(err).Warn("call analysis failed")
			if err := a.db.UpdateCallStatus(call.ID, database.CallFailed); err != nil {
				logrus.WithField("call", call.ID).WithError(err).Error("marking call failed")
			}
			r.Failed++
			continue
		}
		r.Processed++
		logrus.WithField("call", call.ID).Info("call analyzed")
	}

	logrus.Infof("analysis complete: %d scored, %d failed", r.Processed, r.Failed)
	return r
}

func (a *Analyzer) analyzeCall(ctx context.Context, call database.Call) error {
	if call.Transcript == nil || strings.TrimSpace(*call.Transcript) == "" {
		return fmt.Errorf("call has no transcript")
	}

	card, err := a.scoreTranscript(ctx, *call.Transcript)
	if err != nil {
		return err
	}

	analysis := database.CallAnalysis{
		CallID:     call.ID,
		Strengths:  card.Strengths,
		Weaknesses: card.Weaknesses,
		Summary:    card.Summary,
	}
	var sum int
	for _, dim := range rubric.Dimensions {
		d := card.Dimensions[dim]
		analysis.Scores = append(analysis.Scores, database.DimensionScore{
			Dimension:      dim,
			Score:          d.Score,
			Justification:  d.Justification,
			EvidenceQuotes: d.EvidenceQuotes,
		})
		sum += d.Score
	}
	// The stored overall is derived from the six scores, not asked of the
	// model, so it never disagrees with the breakdown.
	analysis.OverallScore = rubric.Round1(float64(sum) / float64(len(rubric.Dimensions)))

	analysisID, err := a.db.InsertAnalysis(analysis)
	if err != nil {
		return err
	}

	items := make([]database.CoachingItem, 0, len(rubric.Dimensions))
	for _, dim := range rubric.Dimensions {
		items = append(items, database.CoachingItem{
			AnalysisID:     analysisID,
			SDRID:          call.SDRID,
			CompanyID:      call.CompanyID,
			Dimension:      dim,
			Recommendation: card.Coaching[dim],
			Status:         database.CoachingOpen,
		})
	}
	return a.db.InsertCoachingItems(items)
}

// scoreTranscript calls the provider with exponential backoff. Client-side
// provider errors are permanent; malformed JSON is retried since the model
// may produce valid output on the next attempt.
func (a *Analyzer) scoreTranscript(ctx context.Context, transcript string) (*scorecard, error) {
	prompt := fmt.Sprintf(scorecardPrompt, transcript)

	var card scorecard
	op := func() error {
		resp, err := a.provider.Generate(ctx, prompt, a.maxTokens)
		if err != nil {
			var httpErr *llm.HTTPError
			if errors.As(err, &httpErr) && httpErr.Permanent() {
				return backoff.Permanent(err)
			}
			return err
		}

		card = scorecard{}
		if err := llm.ParseJSONInto(resp, &card); err != nil {
			return fmt.Errorf("parsing scorecard: %w", err)
		}
		return validateScorecard(&card)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = a.maxRetry
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("scoring transcript: %w", err)
	}
	return &card, nil
}

func validateScorecard(card *scorecard) error {
	for _, dim := range rubric.Dimensions {
		d, ok := card.Dimensions[dim]
		if !ok {
			return fmt.Errorf("scorecard missing dimension %q", dim)
		}
		if d.Score < rubric.MinScore || d.Score > rubric.MaxScore {
			return fmt.Errorf("scorecard %s score %d out of range", dim, d.Score)
		}
	}
	return nil
}
