// Package sanitize produces the neutralized copy of a scanned spreadsheet.
// Formula findings below the removal threshold have their cell replaced with
// a placeholder and a yellow fill; everything else in the workbook is
// preserved. Macro streams are never binary-altered.
package sanitize

import (
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetcheck/internal/extract"
	"github.com/klytics/sheetcheck/internal/finding"
)

// highlightColor is the fill applied to replaced cells.
const highlightColor = "FFFF00"

// WriteCopy writes the sanitized copy to outputPath and returns the number
// of cells replaced. When no finding qualifies for removal the copy is a
// byte-for-byte duplicate of the input.
func WriteCopy(inputPath string, format extract.Format, findings []*finding.Finding, threshold int, outputPath string) (int, error) {
	var targets []*finding.Finding
	for _, f := range findings {
		if f.Removable(threshold) {
			targets = append(targets, f)
		}
	}

	if len(targets) == 0 {
		if err := copyFile(inputPath, outputPath); err != nil {
			return 0, &finding.SanitizeError{Path: outputPath, Err: err}
		}
		return 0, nil
	}

	var err error
	switch format {
	case extract.FormatXLSX, extract.FormatXLSM:
		err = sanitizeWorkbook(inputPath, outputPath, targets)
	case extract.FormatODS:
		err = sanitizeODS(inputPath, outputPath, targets)
	default:
		err = fmt.Errorf("no sanitizer for format %q", format)
	}
	if err != nil {
		return 0, &finding.SanitizeError{Path: outputPath, Err: err}
	}
	return len(targets), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
