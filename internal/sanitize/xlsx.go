package sanitize

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetcheck/internal/finding"
)

// sanitizeWorkbook rewrites flagged cells of an OOXML workbook: formula
// cleared, placeholder value set, yellow fill applied. Sheets, formatting,
// and unflagged formulas are carried over by excelize untouched.
func sanitizeWorkbook(inputPath, outputPath string, targets []*finding.Finding) error {
	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", inputPath, err)
	}
	defer f.Close()

	styleID, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{highlightColor}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("could not create highlight style: %w", err)
	}

	for _, t := range targets {
		sheet := t.Cell.Sheet
		ref := t.Cell.Ref()

		if err := f.SetCellFormula(sheet, ref, ""); err != nil {
			return fmt.Errorf("could not clear formula %s!%s: %w", sheet, ref, err)
		}
		if err := f.SetCellValue(sheet, ref, t.Placeholder()); err != nil {
			return fmt.Errorf("could not set placeholder %s!%s: %w", sheet, ref, err)
		}
		if err := f.SetCellStyle(sheet, ref, ref, styleID); err != nil {
			return fmt.Errorf("could not style %s!%s: %w", sheet, ref, err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("could not save %s: %w", outputPath, err)
	}
	return nil
}
