// Package scan runs one scan session end to end: extract findings, score
// them, write the report, write the sanitized copy.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klytics/sheetcheck/internal/extract"
	"github.com/klytics/sheetcheck/internal/finding"
	"github.com/klytics/sheetcheck/internal/report"
	"github.com/klytics/sheetcheck/internal/rules"
	"github.com/klytics/sheetcheck/internal/sanitize"
	"github.com/klytics/sheetcheck/internal/score"
)

// Session owns all findings for a single invocation. Nothing is persisted;
// the session is discarded once outputs are written.
type Session struct {
	InputPath       string
	OutputDir       string
	RemoveThreshold int
	ReportOnly      bool

	Format   extract.Format
	Findings []*finding.Finding
	Warnings []string
}

// Outcome reports what a completed session produced.
type Outcome struct {
	ReportPath    string         `json:"reportPath"`
	SanitizedPath string         `json:"sanitizedPath,omitempty"`
	Removed       int            `json:"removed"`
	Summary       report.Summary `json:"summary"`
}

// New validates the input and builds a session. Fails with
// finding.ErrUnsupportedFormat before any output is produced.
func New(inputPath, outputDir string, threshold int) (*Session, error) {
	format, err := extract.DetectFormat(inputPath)
	if err != nil {
		return nil, err
	}

	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	} else if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", outputDir, err)
	}

	return &Session{
		InputPath:       inputPath,
		OutputDir:       outputDir,
		RemoveThreshold: threshold,
		Format:          format,
	}, nil
}

// Extract populates the finding list: macro modules first, then matching
// formula cells, with sequential IDs.
func (s *Session) Extract(rs *rules.Set) error {
	findings, warnings, err := extract.Extract(s.InputPath, s.Format, rs)
	s.Warnings = append(s.Warnings, warnings...)
	if err != nil {
		return err
	}
	s.Findings = findings
	return nil
}

// Score settles every pending finding through the given scorer. On
// cancellation the session is abandoned: no output files are written.
func (s *Session) Score(ctx context.Context, sc *score.Scorer) error {
	return sc.ScoreAll(ctx, s.Findings)
}

// WriteOutputs writes the report and, unless ReportOnly is set, the
// sanitized copy. The report lands first; a sanitize failure is returned
// alongside an outcome that still carries the report path.
func (s *Session) WriteOutputs(timestamp time.Time) (*Outcome, error) {
	base := filepath.Base(s.InputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	ts := timestamp.Format("20060102_150405")

	outcome := &Outcome{
		Summary: report.Summarize(s.Findings, s.RemoveThreshold),
	}

	md := report.Render(report.Params{
		InputPath:       s.InputPath,
		Findings:        s.Findings,
		Warnings:        s.Warnings,
		RemoveThreshold: s.RemoveThreshold,
		Timestamp:       timestamp,
	})
	reportPath := filepath.Join(s.OutputDir, fmt.Sprintf("%s_report_%s.md", stem, ts))
	if err := os.WriteFile(reportPath, []byte(md), 0644); err != nil {
		return nil, fmt.Errorf("could not write report %s: %w", reportPath, err)
	}
	outcome.ReportPath = reportPath

	if s.ReportOnly {
		return outcome, nil
	}

	sanitizedPath := filepath.Join(s.OutputDir, fmt.Sprintf("%s_sanitized_%s%s", stem, ts, ext))
	removed, err := sanitize.WriteCopy(s.InputPath, s.Format, s.Findings, s.RemoveThreshold, sanitizedPath)
	if err != nil {
		return outcome, err
	}
	outcome.SanitizedPath = sanitizedPath
	outcome.Removed = removed
	return outcome, nil
}
