package finding

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned before any output is produced when the
// input is neither an OOXML workbook nor an OpenDocument spreadsheet.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ErrScoringUnavailable marks a per-finding scoring failure. It never aborts
// a scan; the finding is carried as unscored.
var ErrScoringUnavailable = errors.New("scoring unavailable")

// SanitizeError wraps a failure to write the sanitized copy. The report is
// written independently, so callers can still surface it.
type SanitizeError struct {
	Path string
	Err  error
}

func (e *SanitizeError) Error() string {
	return fmt.Sprintf("could not write sanitized copy %s: %v", e.Path, e.Err)
}

func (e *SanitizeError) Unwrap() error { return e.Err }
