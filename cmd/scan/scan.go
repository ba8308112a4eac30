// Package scan provides the "sheetcheck scan" command.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetcheck/internal/ai"
	"github.com/klytics/sheetcheck/internal/config"
	"github.com/klytics/sheetcheck/internal/finding"
	"github.com/klytics/sheetcheck/internal/history"
	"github.com/klytics/sheetcheck/internal/output"
	"github.com/klytics/sheetcheck/internal/progress"
	"github.com/klytics/sheetcheck/internal/rules"
	"github.com/klytics/sheetcheck/internal/scan"
	"github.com/klytics/sheetcheck/internal/score"
)

// NewCommand creates the "scan" command.
func NewCommand(cfg *config.Config) *cobra.Command {
	var (
		removeThreshold int
		outputDir       string
		concurrency     int
		reportOnly      bool
		keywordsFile    string
	)

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Scan a spreadsheet for macros and risky formulas",
		Long: `Scans a spreadsheet (.xlsx, .xlsm, .ods) for VBA macros and formulas
matching the risk keyword set, scores each finding 1-10 through the
configured AI provider, and writes a Markdown report plus a sanitized
copy where every formula scoring below the removal threshold is replaced
with a highlighted placeholder.

Macros are reported but never binary-altered; removing compiled VBA
safely would require rewriting the OLE stream.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			providerName, _ := cmd.Flags().GetString("provider")
			modelName, _ := cmd.Flags().GetString("model")
			verbose, _ := cmd.Flags().GetBool("verbose")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			started := time.Now()
			w := output.NewWriter(jsonFlag)

			session, err := scan.New(args[0], outputDir, removeThreshold)
			if err != nil {
				return err
			}
			session.ReportOnly = reportOnly

			rs := rules.Default()
			if keywordsFile != "" {
				rs, err = rules.Load(keywordsFile)
				if err != nil {
					return err
				}
			}

			if err := session.Extract(rs); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "extracted %d findings from %s (%s)\n",
					len(session.Findings), session.InputPath, session.Format)
			}

			if len(session.Findings) > 0 {
				provider, err := ai.NewProvider(providerName, modelName)
				if err != nil {
					return err
				}

				bar := progress.New("Scoring", len(session.Findings))
				scorer := &score.Scorer{
					Provider:    provider,
					Model:       modelName,
					Concurrency: concurrency,
					OnScored: func(f *finding.Finding) {
						bar.Increment(f.Location)
					},
				}
				if err := session.Score(ctx, scorer); err != nil {
					return fmt.Errorf("scan interrupted — no outputs written: %w", err)
				}
				bar.Finish(fmt.Sprintf("scored %d findings", len(session.Findings)))
			}

			outcome, err := session.WriteOutputs(time.Now())
			var sanitizeErr *finding.SanitizeError
			if err != nil && !errors.As(err, &sanitizeErr) {
				return err
			}

			recordHistory(cfg, session, outcome, started)

			if jsonFlag {
				if werr := w.WriteResult(map[string]any{
					"input":    session.InputPath,
					"format":   session.Format,
					"findings": session.Findings,
					"warnings": session.Warnings,
					"outcome":  outcome,
				}); werr != nil {
					return werr
				}
				return err
			}

			printSummary(w, session, outcome)
			return err
		},
	}

	cmd.Flags().IntVar(&removeThreshold, "remove-threshold", cfg.RemoveThreshold, "Findings scoring below this are removed from the sanitized copy")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for output files (default: same as input file)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Concurrent scoring calls")
	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "Write the report but skip the sanitized copy")
	cmd.Flags().StringVar(&keywordsFile, "keywords-file", cfg.KeywordsFile, "YAML file overriding the risk keyword set")

	return cmd
}

func printSummary(w *output.Writer, session *scan.Session, outcome *scan.Outcome) {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	w.WriteLn(bold(fmt.Sprintf("Scanned %s: %d findings", session.InputPath, len(session.Findings))))
	for _, warn := range session.Warnings {
		w.WriteLn(yellow("  warning: " + warn))
	}

	if len(session.Findings) == 0 {
		w.WriteLn(green("  no suspicious content found"))
	} else {
		s := outcome.Summary
		w.WriteLn(fmt.Sprintf("  %s %d  %s %d  %s %d  %s %d  unscored %d",
			red("malicious(1-3)"), s.Malicious,
			yellow("suspicious(4-6)"), s.Suspicious,
			yellow("risky(7-9)"), s.Risky,
			green("safe(10)"), s.Safe,
			s.Unscored))
	}

	w.WriteLn("  report:    " + outcome.ReportPath)
	if outcome.SanitizedPath != "" {
		w.WriteLn(fmt.Sprintf("  sanitized: %s (%d cells replaced)", outcome.SanitizedPath, outcome.Removed))
	}
}

func recordHistory(cfg *config.Config, session *scan.Session, outcome *scan.Outcome, started time.Time) {
	store := history.NewStore(config.Dir(), cfg.History.Enabled)
	store.Record(history.Entry{
		Timestamp:  started,
		InputFile:  session.InputPath,
		Format:     string(session.Format),
		Findings:   len(session.Findings),
		Removed:    outcome.Removed,
		Unscored:   outcome.Summary.Unscored,
		Threshold:  session.RemoveThreshold,
		DurationMs: time.Since(started).Milliseconds(),
	})
}
