// Package extract opens spreadsheet containers and yields scan findings:
// one per VBA module and one per formula cell matching a risk keyword.
package extract

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klytics/sheetcheck/internal/finding"
	"github.com/klytics/sheetcheck/internal/rules"
)

// Format identifies a supported spreadsheet container.
type Format string

const (
	// FormatXLSX is an OOXML workbook without a macro project.
	FormatXLSX Format = "xlsx"
	// FormatXLSM is a macro-enabled OOXML workbook.
	FormatXLSM Format = "xlsm"
	// FormatODS is an OpenDocument spreadsheet.
	FormatODS Format = "ods"
)

// formulaHit is an extracted formula cell prior to finding assembly.
type formulaHit struct {
	Sheet   string
	Column  string
	Row     int
	Formula string
}

// DetectFormat determines the container type by extension and signature.
// Returns finding.ErrUnsupportedFormat when neither an OOXML workbook nor an
// OpenDocument container is recognized.
func DetectFormat(path string) (Format, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("could not access %s: %w", path, err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		format = FormatXLSX
	case ".xlsm":
		format = FormatXLSM
	case ".ods":
		format = FormatODS
	default:
		return "", fmt.Errorf("%w: %s (supported: .xlsx, .xlsm, .ods)", finding.ErrUnsupportedFormat, filepath.Ext(path))
	}

	// All three formats are zip containers; verify the signature.
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid %s container", finding.ErrUnsupportedFormat, path, format)
	}
	defer zr.Close()

	if format == FormatODS && !zipHasFile(&zr.Reader, "content.xml") {
		return "", fmt.Errorf("%w: %s has no content.xml", finding.ErrUnsupportedFormat, path)
	}

	return format, nil
}

// Extract produces the findings for a file: macro findings first, in module
// declaration order, then formula findings in sheet-then-row-then-column
// order. IDs are assigned sequentially starting at 1. Non-fatal problems
// (a macro project that cannot be decoded) are returned as warnings.
func Extract(path string, format Format, rs *rules.Set) ([]*finding.Finding, []string, error) {
	var (
		findings []*finding.Finding
		warnings []string
	)

	if format == FormatXLSM {
		modules, err := extractVBAModules(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("macro extraction skipped: %v", err))
		}
		for _, m := range modules {
			findings = append(findings, &finding.Finding{
				ID:       len(findings) + 1,
				Kind:     finding.KindMacro,
				Location: "VBA Module: " + m.Name,
				Source:   m.Code,
			})
		}
	}

	var (
		hits []formulaHit
		err  error
	)
	switch format {
	case FormatXLSX, FormatXLSM:
		hits, err = extractWorkbookFormulas(path, rs)
	case FormatODS:
		hits, err = extractODSFormulas(path, rs)
	}
	if err != nil {
		return nil, warnings, err
	}

	for _, h := range hits {
		cell := &finding.CellRef{Sheet: h.Sheet, Column: h.Column, Row: h.Row}
		findings = append(findings, &finding.Finding{
			ID:       len(findings) + 1,
			Kind:     finding.KindFormula,
			Location: fmt.Sprintf("%s!%s", h.Sheet, cell.Ref()),
			Source:   h.Formula,
			Cell:     cell,
		})
	}

	return findings, warnings, nil
}

func zipHasFile(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
