package extract

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetcheck/internal/rules"
)

// extractWorkbookFormulas walks every cell of an OOXML workbook and returns
// the cells whose formula text matches the rule set, in sheet-then-row-then-
// column order.
func extractWorkbookFormulas(path string, rs *rules.Set) ([]formulaHit, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid workbook? %w", path, err)
	}
	defer f.Close()

	var hits []formulaHit
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", sheet, err)
		}

		for rowIdx, row := range rows {
			for colIdx := range row {
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					return nil, fmt.Errorf("invalid cell coordinates: %w", err)
				}
				formula, err := f.GetCellFormula(sheet, cellName)
				if err != nil || formula == "" {
					continue
				}
				if _, ok := rs.Match(formula); !ok {
					continue
				}

				col, err := excelize.ColumnNumberToName(colIdx + 1)
				if err != nil {
					return nil, fmt.Errorf("invalid column %d: %w", colIdx+1, err)
				}
				hits = append(hits, formulaHit{
					Sheet:   sheet,
					Column:  col,
					Row:     rowIdx + 1,
					Formula: "=" + formula,
				})
			}
		}
	}

	return hits, nil
}
