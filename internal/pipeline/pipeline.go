// Package pipeline orchestrates the ingest -> analyze -> report run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/calldeck/calldeck/internal/analyze"
	"github.com/calldeck/calldeck/internal/config"
	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/ingest"
	"github.com/calldeck/calldeck/internal/llm"
	"github.com/calldeck/calldeck/internal/report"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	WeekNumber int
	Year       int
	Steps      []StepResult
}

// Pipeline orchestrates the 3-step weekly coaching run.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	s := cfg.Scoring
	provider := llm.CreateProvider(s.Provider, s.Model, s.OllamaURL, s.OpenAIModel, s.APIKeyEnv)
	return &Pipeline{cfg: cfg, db: db, provider: provider}
}

// Run executes the pipeline: import the call sheet (if given), score
// pending calls, then generate every SDR's weekly report.
func (p *Pipeline) Run(ctx context.Context, sheetPath string, week, year int) *Result {
	r := &Result{WeekNumber: week, Year: year}

	if sheetPath != "" {
		step := p.runIngest(sheetPath)
		r.Steps = append(r.Steps, step)
		if step.Err != nil {
			return r
		}
	}

	r.Steps = append(r.Steps, p.runAnalyze(ctx))
	r.Steps = append(r.Steps, p.runReport(week, year))
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(week, year int) *Result {
	r := &Result{WeekNumber: week, Year: year}

	pending, _ := p.db.GetPendingCalls(p.cfg.Company.ID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("[dry-run] %d calls pending analysis", len(pending)),
	})

	sdrs, _ := p.db.GetSDRsForCompany(p.cfg.Company.ID)
	r.Steps = append(r.Steps, StepResult{
		Name: "Report",
		Summary: fmt.Sprintf("[dry-run] would generate reports for %d SDRs for %s",
			len(sdrs), database.FormatWeekDisplay(week, year)),
	})

	return r
}

func (p *Pipeline) runIngest(sheetPath string) StepResult {
	logrus.Info("Step 1/3: Importing call sheet...")
	importer := ingest.NewImporter(p.db, p.cfg.Company.ID)
	result, err := importer.ImportFile(sheetPath)
	if err != nil {
		return StepResult{Name: "Ingest", Err: err}
	}
	return StepResult{
		Name: "Ingest",
		Summary: fmt.Sprintf("Imported %d new calls (%d rows, %d duplicates, %d skipped)",
			result.NewCalls, result.TotalRows, result.Duplicates, result.Skipped),
	}
}

func (p *Pipeline) runAnalyze(ctx context.Context) StepResult {
	logrus.Info("Step 2/3: Scoring pending calls...")
	analyzer := analyze.NewAnalyzer(p.db, p.provider, p.cfg.Scoring.MaxTokens)
	result := analyzer.AnalyzeCalls(ctx, p.cfg.Company.ID)
	return StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("Scored %d calls, %d failed", result.Processed, result.Failed),
	}
}

func (p *Pipeline) runReport(week, year int) StepResult {
	logrus.Info("Step 3/3: Generating weekly reports...")
	gen := report.NewGenerator(p.db)
	result, err := gen.GenerateAll(p.cfg.Company.ID, week, year)
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	summary := fmt.Sprintf("Generated %d reports, skipped %d SDRs with no calls",
		result.Generated, result.Skipped)
	if len(result.Failures) > 0 {
		summary += fmt.Sprintf(", %d failed", len(result.Failures))
	}
	return StepResult{Name: "Report", Summary: summary}
}
