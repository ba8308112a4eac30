package report

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/klytics/sheetcheck/internal/finding"
)

func sampleFindings() []*finding.Finding {
	macro := &finding.Finding{
		ID:       1,
		Kind:     finding.KindMacro,
		Location: "VBA Module: Module1",
		Source:   "Sub AutoOpen()\n  Shell \"cmd /c calc\"\nEnd Sub",
	}
	macro.SetResult(finding.Scored(2, "Executes a shell command on open."))

	formula := &finding.Finding{
		ID:       2,
		Kind:     finding.KindFormula,
		Location: "Sheet1!B2",
		Source:   `=WEBSERVICE("http://x")`,
		Cell:     &finding.CellRef{Sheet: "Sheet1", Column: "B", Row: 2},
	}
	formula.SetResult(finding.Scored(4, "Fetches external data."))

	return []*finding.Finding{macro, formula}
}

func TestSummarize(t *testing.T) {
	findings := sampleFindings()
	failed := &finding.Finding{ID: 3, Kind: finding.KindFormula, Cell: &finding.CellRef{Sheet: "Sheet1", Column: "C", Row: 1}}
	failed.SetResult(finding.Failed("provider unavailable"))
	findings = append(findings, failed)

	s := Summarize(findings, 5)
	if s.Malicious != 1 || s.Suspicious != 1 || s.Risky != 0 || s.Safe != 0 {
		t.Errorf("bands = %+v", s)
	}
	if s.Unscored != 1 {
		t.Errorf("Unscored = %d, want 1", s.Unscored)
	}
	// The macro scored 2 is flagged but not removable; only the formula
	// below threshold counts.
	if s.ToRemove != 1 {
		t.Errorf("ToRemove = %d, want 1", s.ToRemove)
	}
}

func TestRender(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	out := Render(Params{
		InputPath:       "/tmp/in/budget.xlsm",
		Findings:        sampleFindings(),
		Warnings:        []string{"macro extraction skipped a stream"},
		RemoveThreshold: 5,
		Timestamp:       ts,
	})

	for _, want := range []string{
		"# Macro Security Analysis Report",
		"**File:** budget.xlsm",
		"**Scan Date:** 2026-08-29 10:30:00",
		"**Total Items Found:** 2",
		"**Removal Threshold:** 5",
		"- macro extraction skipped a stream",
		"- **Malicious (1-3):** 1",
		"- **Suspicious (4-6):** 1",
		"- **Items to be removed (score < 5):** 1",
		"### Item #1: VBA Module: Module1",
		"**Kind:** macro",
		"**Score:** 2/10",
		"### Item #2: Sheet1!B2",
		"**Score:** 4/10",
		"**Analysis:** Fetches external data.",
		"```\n=WEBSERVICE(\"http://x\")\n```",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Detail sections stay in ID order.
	if strings.Index(out, "Item #1") > strings.Index(out, "Item #2") {
		t.Error("findings rendered out of ID order")
	}
}

func TestRenderNoFindings(t *testing.T) {
	out := Render(Params{
		InputPath:       "clean.xlsx",
		RemoveThreshold: 5,
		Timestamp:       time.Now(),
	})
	if !strings.Contains(out, "No suspicious content found.") {
		t.Error("missing clean-file summary line")
	}
	if strings.Contains(out, "Detailed Findings") {
		t.Error("clean report should have no findings section")
	}
}

func TestRenderUnscoredFinding(t *testing.T) {
	f := &finding.Finding{ID: 1, Kind: finding.KindFormula, Location: "Sheet1!A1", Source: "=EXEC(1)"}
	f.SetResult(finding.Failed("scoring unavailable: connection refused"))

	out := Render(Params{
		InputPath:       "x.xlsx",
		Findings:        []*finding.Finding{f},
		RemoveThreshold: 5,
		Timestamp:       time.Now(),
	})
	if !strings.Contains(out, "**Score:** unscored") {
		t.Error("missing unscored marker")
	}
	if !strings.Contains(out, "**Note:** scoring unavailable: connection refused") {
		t.Error("missing failure note")
	}
	if !strings.Contains(out, "- **Unscored:** 1") {
		t.Error("missing unscored summary count")
	}
}

func TestRenderTruncatesLongSource(t *testing.T) {
	f := &finding.Finding{
		ID:       1,
		Kind:     finding.KindMacro,
		Location: "VBA Module: Big",
		Source:   strings.Repeat("x", excerptLimit+100),
	}
	f.SetResult(finding.Scored(3, "n"))

	out := Render(Params{
		InputPath:       "x.xlsm",
		Findings:        []*finding.Finding{f},
		RemoveThreshold: 5,
		Timestamp:       time.Now(),
	})
	if !strings.Contains(out, "... (truncated)") {
		t.Error("long source should be truncated")
	}
	if strings.Contains(out, strings.Repeat("x", excerptLimit+1)) {
		t.Error("source rendered beyond the excerpt limit")
	}
}

func TestExcerptKeepsRunesIntact(t *testing.T) {
	// The byte limit lands inside a multi-byte rune; the cut must back up
	// to the rune start instead of emitting a mangled character.
	src := strings.Repeat("x", excerptLimit-1) + strings.Repeat("日", 40)
	got := excerpt(src)

	if !strings.HasSuffix(got, "... (truncated)") {
		t.Fatalf("excerpt not truncated: %q", got[len(got)-30:])
	}
	cut := strings.TrimSuffix(got, "\n... (truncated)")
	if !utf8.ValidString(cut) {
		t.Error("excerpt split a multi-byte rune")
	}
	if len(cut) != excerptLimit-1 {
		t.Errorf("cut at %d bytes, want %d", len(cut), excerptLimit-1)
	}
}

func TestRenderDeterministic(t *testing.T) {
	p := Params{
		InputPath:       "budget.xlsm",
		Findings:        sampleFindings(),
		RemoveThreshold: 5,
		Timestamp:       time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
	}
	if Render(p) != Render(p) {
		t.Error("identical params should render identical reports")
	}
}
