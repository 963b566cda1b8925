package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/calldeck/calldeck/internal/analyze"
	"github.com/calldeck/calldeck/internal/config"
	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/export"
	"github.com/calldeck/calldeck/internal/ingest"
	"github.com/calldeck/calldeck/internal/llm"
	"github.com/calldeck/calldeck/internal/logger"
	"github.com/calldeck/calldeck/internal/pipeline"
	"github.com/calldeck/calldeck/internal/report"
	"github.com/calldeck/calldeck/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "calldeck",
	Short:   "Weekly SDR coaching reports from scored sales calls",
	Long:    "Calldeck imports call transcripts, scores them across six coaching dimensions, and rolls them up into per-SDR weekly reports with week-over-week deltas and coaching impact.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logger.Setup("INFO")
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger.Setup(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

func openDB() (*database.DB, error) {
	return database.Open(filepath.Join(cfg.GetDataDir(), "calldeck.db"))
}

// lastFullWeek returns the most recent completed reporting week.
func lastFullWeek() (week, year int) {
	return database.WeekOf(time.Now().AddDate(0, 0, -7))
}

// resolveWeek applies the default of "last completed week" to flag values.
func resolveWeek(week, year int) (int, int, error) {
	defWeek, defYear := lastFullWeek()
	if week == 0 {
		week = defWeek
	}
	if year == 0 {
		year = defYear
	}
	if !database.ValidWeek(week, year) {
		return 0, 0, fmt.Errorf("invalid week %d/%d", week, year)
	}
	return week, year, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("calldeck", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/calldeck/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set your company and LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		week, year := lastFullWeek()
		fmt.Printf("Company: %s\n", cfg.Company.ID)
		fmt.Printf("Last full week: %s\n\n", database.FormatWeekDisplay(week, year))
		fmt.Println("Calls:")
		fmt.Printf("  SDRs: %d\n", stats.SDRs)
		fmt.Printf("  Total: %d\n", stats.TotalCalls)
		fmt.Printf("  Completed: %d\n", stats.CompletedCalls)
		fmt.Printf("  Pending: %d\n", stats.PendingCalls)
		fmt.Println("\nCoaching:")
		fmt.Printf("  Analyses: %d\n", stats.Analyses)
		fmt.Printf("  Action items: %d (%d open)\n", stats.CoachingItems, stats.OpenCoaching)
		fmt.Println("\nReports:")
		fmt.Printf("  Weekly reports: %d\n", stats.WeeklyReports)
		fmt.Printf("  Weeks covered: %d\n", stats.ReportedWeeks)
		return nil
	},
}

// --- ingest command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest <call-sheet.xlsx>",
	Short: "Import a call sheet (XLSX with SDR, date and transcript columns)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		importer := ingest.NewImporter(db, cfg.Company.ID)
		result, err := importer.ImportFile(args[0])
		if err != nil {
			return err
		}

		fmt.Println("Import complete:")
		fmt.Printf("  Rows: %d\n", result.TotalRows)
		fmt.Printf("  New calls: %d\n", result.NewCalls)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		fmt.Printf("  Unusable rows skipped: %d\n", result.Skipped)
		return nil
	},
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score pending calls with the configured LLM",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		s := cfg.Scoring
		provider := llm.CreateProvider(s.Provider, s.Model, s.OllamaURL, s.OpenAIModel, s.APIKeyEnv)
		analyzer := analyze.NewAnalyzer(db, provider, s.MaxTokens)
		result := analyzer.AnalyzeCalls(context.Background(), cfg.Company.ID)

		fmt.Printf("Scored %d calls, %d failed\n", result.Processed, result.Failed)
		return nil
	},
}

// --- report command ---

var (
	reportWeek int
	reportYear int
	reportSDR  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate weekly reports from completed analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		week, year, err := resolveWeek(reportWeek, reportYear)
		if err != nil {
			return err
		}

		gen := report.NewGenerator(db)
		if reportSDR != "" {
			rep, err := gen.Generate(cfg.Company.ID, reportSDR, week, year)
			if err != nil {
				return err
			}
			fmt.Printf("Report for %s:\n%s\n", database.FormatWeekDisplay(week, year), rep.Summary)
			return nil
		}

		result, err := gen.GenerateAll(cfg.Company.ID, week, year)
		if err != nil {
			return err
		}
		printBatch(result)
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportWeek, "week", 0, "ISO week number (default: last full week)")
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "Year (default: last full week's year)")
	reportCmd.Flags().StringVar(&reportSDR, "sdr", "", "Generate for a single SDR ID")
}

func printBatch(result *report.BatchResult) {
	fmt.Printf("Reports for %s:\n", database.FormatWeekDisplay(result.WeekNumber, result.Year))
	fmt.Printf("  Generated: %d\n", result.Generated)
	fmt.Printf("  Skipped (no calls): %d\n", result.Skipped)
	if len(result.Failures) > 0 {
		fmt.Printf("  Failed: %d\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Printf("    %s: %v\n", f.SDRID, f.Err)
		}
	}
}

// --- run command ---

var (
	dryRun   bool
	runSheet string
	runWeek  int
	runYear  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: ingest -> analyze -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		week, year, err := resolveWeek(runWeek, runYear)
		if err != nil {
			return err
		}

		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(week, year)
		} else {
			result = pipe.Run(context.Background(), runSheet, week, year)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'calldeck serve' to view the reports.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "Call sheet XLSX to import first")
	runCmd.Flags().IntVar(&runWeek, "week", 0, "ISO week number (default: last full week)")
	runCmd.Flags().IntVar(&runYear, "year", 0, "Year (default: last full week's year)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coaching dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}
		return server.Serve(db, cfg.Company.ID, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
}

// --- export command ---

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all weekly reports to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("calldeck-reports-%s.xlsx", time.Now().Format("2006-01-02"))
		}

		n, err := export.Workbook(db, cfg.Company.ID, out)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d reports to %s\n", n, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: calldeck-reports-<date>.xlsx)")
}
