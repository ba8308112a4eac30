// Package report renders scan results as a Markdown document. Rendering is
// pure: writing the report to disk is the caller's job.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klytics/sheetcheck/internal/finding"
)

// excerptLimit caps the source text shown per finding.
const excerptLimit = 500

// Params collects everything the report needs.
type Params struct {
	InputPath       string
	Findings        []*finding.Finding
	Warnings        []string
	RemoveThreshold int
	Timestamp       time.Time
}

// Summary holds the score-band counts shown in the report header.
type Summary struct {
	Malicious  int // 1-3
	Suspicious int // 4-6
	Risky      int // 7-9
	Safe       int // 10
	Unscored   int
	ToRemove   int
}

// Summarize counts findings per score band. Unscored findings are counted
// separately and never as safe or removable.
func Summarize(findings []*finding.Finding, threshold int) Summary {
	var s Summary
	for _, f := range findings {
		if f.Result.State != finding.StateScored {
			s.Unscored++
			continue
		}
		switch {
		case f.Result.Score <= 3:
			s.Malicious++
		case f.Result.Score <= 6:
			s.Suspicious++
		case f.Result.Score <= 9:
			s.Risky++
		default:
			s.Safe++
		}
		if f.Removable(threshold) {
			s.ToRemove++
		}
	}
	return s
}

// Render produces the Markdown report. Findings are listed in ID order so
// reruns with a deterministic scorer produce identical output modulo the
// timestamp.
func Render(p Params) string {
	var b strings.Builder
	s := Summarize(p.Findings, p.RemoveThreshold)

	fmt.Fprintf(&b, "# Macro Security Analysis Report\n\n")
	fmt.Fprintf(&b, "**File:** %s\n", filepath.Base(p.InputPath))
	fmt.Fprintf(&b, "**Scan Date:** %s\n", p.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total Items Found:** %d\n", len(p.Findings))
	fmt.Fprintf(&b, "**Removal Threshold:** %d\n\n", p.RemoveThreshold)

	if len(p.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n\n")
	if len(p.Findings) == 0 {
		b.WriteString("No suspicious content found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "- **Malicious (1-3):** %d\n", s.Malicious)
	fmt.Fprintf(&b, "- **Suspicious (4-6):** %d\n", s.Suspicious)
	fmt.Fprintf(&b, "- **Potentially Risky (7-9):** %d\n", s.Risky)
	fmt.Fprintf(&b, "- **Safe (10):** %d\n", s.Safe)
	fmt.Fprintf(&b, "- **Unscored:** %d\n", s.Unscored)
	fmt.Fprintf(&b, "- **Items to be removed (score < %d):** %d\n\n", p.RemoveThreshold, s.ToRemove)

	b.WriteString("## Detailed Findings\n\n")
	for _, f := range p.Findings {
		fmt.Fprintf(&b, "### Item #%d: %s\n\n", f.ID, f.Location)
		fmt.Fprintf(&b, "**Kind:** %s\n\n", f.Kind)

		switch f.Result.State {
		case finding.StateScored:
			fmt.Fprintf(&b, "**Score:** %d/10\n\n", f.Result.Score)
			fmt.Fprintf(&b, "**Analysis:** %s\n\n", f.Result.Rationale)
		case finding.StateFailed:
			b.WriteString("**Score:** unscored\n\n")
			fmt.Fprintf(&b, "**Note:** %s\n\n", f.Result.Reason)
		default:
			b.WriteString("**Score:** pending\n\n")
		}

		b.WriteString("**Code:**\n```\n")
		b.WriteString(excerpt(f.Source))
		b.WriteString("\n```\n\n---\n\n")
	}

	return b.String()
}

func excerpt(source string) string {
	if len(source) <= excerptLimit {
		return source
	}
	cut := excerptLimit
	for cut > 0 && !utf8.RuneStart(source[cut]) {
		cut--
	}
	return source[:cut] + "\n... (truncated)"
}
