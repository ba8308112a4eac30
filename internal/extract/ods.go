package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetcheck/internal/rules"
)

const tableNS = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"

// maxRepeatRun caps how many repeated columns are expanded; ODS pads rows
// with huge empty repeat runs that carry no formulas.
const maxRepeatRun = 100

// extractODSFormulas walks content.xml of an OpenDocument spreadsheet and
// returns cells carrying a table:formula attribute that matches the rule set.
func extractODSFormulas(path string, rs *rules.Set) ([]formulaHit, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer zr.Close()

	rc, err := openZipFile(&zr.Reader, "content.xml")
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var hits []formulaHit
	dec := xml.NewDecoder(rc)

	var (
		sheet     string
		row       int
		col       int
		rowRepeat int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not parse content.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != tableNS {
				continue
			}
			switch el.Name.Local {
			case "table":
				sheet = tableAttr(el, "name")
				if sheet == "" {
					sheet = "Sheet"
				}
				row = 0
			case "table-row":
				// Cells belong to the first row of a repeated run; the
				// remainder of the run is skipped on the closing tag.
				rowRepeat = repeatCount(el, "number-rows-repeated")
				row++
				col = 0
			case "table-cell", "covered-table-cell":
				repeat := repeatCount(el, "number-columns-repeated")
				if repeat > maxRepeatRun {
					col += repeat
					continue
				}
				col++
				if formula := tableAttr(el, "formula"); formula != "" {
					if _, ok := rs.Match(formula); ok {
						colName, err := excelize.ColumnNumberToName(col)
						if err != nil {
							return nil, fmt.Errorf("invalid column %d: %w", col, err)
						}
						hits = append(hits, formulaHit{
							Sheet:   sheet,
							Column:  colName,
							Row:     row,
							Formula: formula,
						})
					}
				}
				col += repeat - 1
			}
		case xml.EndElement:
			if el.Name.Space == tableNS && el.Name.Local == "table-row" {
				row += rowRepeat - 1
				rowRepeat = 0
			}
		}
	}

	return hits, nil
}

func openZipFile(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("container has no %s", name)
}

func tableAttr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Space == tableNS && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func repeatCount(el xml.StartElement, local string) int {
	v := tableAttr(el, local)
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
