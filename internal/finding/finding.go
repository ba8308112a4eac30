// Package finding holds the finding model shared across the scan pipeline.
package finding

import "fmt"

// Kind distinguishes the two sources of extracted content.
type Kind string

const (
	// KindMacro is a VBA module extracted from an OLE macro project.
	KindMacro Kind = "macro"
	// KindFormula is a worksheet cell whose formula matched a risk keyword.
	KindFormula Kind = "formula"
)

// CellRef identifies a worksheet cell. Row is 1-based; Column is a letter
// reference ("A", "BC").
type CellRef struct {
	Sheet  string `json:"sheet"`
	Column string `json:"column"`
	Row    int    `json:"row"`
}

// Ref returns the A1-style reference without the sheet name.
func (c CellRef) Ref() string {
	return fmt.Sprintf("%s%d", c.Column, c.Row)
}

// ResultState tracks where a finding is in its scoring lifecycle.
type ResultState int

const (
	// StatePending means the finding has not been scored yet.
	StatePending ResultState = iota
	// StateScored means the finding carries a valid 1-10 score.
	StateScored
	// StateFailed means scoring was attempted and did not produce a score.
	StateFailed
)

// Result is the scoring outcome attached to a finding. Score and Rationale
// are only meaningful when State == StateScored; Reason only when
// State == StateFailed.
type Result struct {
	State     ResultState `json:"state"`
	Score     int         `json:"score,omitempty"`
	Rationale string      `json:"rationale,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// Scored returns a scored result with the score clamped to [1,10].
func Scored(score int, rationale string) Result {
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return Result{State: StateScored, Score: score, Rationale: rationale}
}

// Failed returns a failed result carrying the reason scoring was unavailable.
func Failed(reason string) Result {
	return Result{State: StateFailed, Reason: reason}
}

// Finding is a single unit of extracted content subject to scoring: one VBA
// module or one risky formula cell. IDs are sequential and stable for the
// lifetime of the session; the report and the sanitized-copy placeholder both
// reference them.
type Finding struct {
	ID       int      `json:"id"`
	Kind     Kind     `json:"kind"`
	Location string   `json:"location"` // "VBA Module: Module1" or "Sheet1!B2"
	Source   string   `json:"source"`
	Cell     *CellRef `json:"cell,omitempty"` // nil for macro findings
	Result   Result   `json:"result"`
}

// SetResult attaches a scoring outcome. A result that has left StatePending
// is never overwritten.
func (f *Finding) SetResult(r Result) {
	if f.Result.State != StatePending {
		return
	}
	f.Result = r
}

// Removable reports whether the finding would be neutralized at the given
// threshold. Only scored formula findings qualify; pending and failed
// findings are never removed.
func (f *Finding) Removable(threshold int) bool {
	return f.Kind == KindFormula &&
		f.Cell != nil &&
		f.Result.State == StateScored &&
		f.Result.Score < threshold
}

// Placeholder is the literal text written into a sanitized cell.
func (f *Finding) Placeholder() string {
	return fmt.Sprintf("CODE REMOVED: Item #%d", f.ID)
}
