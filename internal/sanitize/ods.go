package sanitize

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetcheck/internal/finding"
)

const tableNS = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"

// styleName is the automatic cell style injected for replaced cells.
const styleName = "SheetcheckRemoved"

// splice is one byte-range replacement inside content.xml.
type splice struct {
	start int64
	end   int64
	repl  []byte
}

// sanitizeODS rewrites an OpenDocument spreadsheet by splicing replacement
// cell elements into content.xml at the exact byte ranges of the originals.
// Every byte outside the flagged cells and the injected style is preserved,
// which keeps the copy structurally identical to the input.
func sanitizeODS(inputPath, outputPath string, targets []*finding.Finding) error {
	zr, err := zip.OpenReader(inputPath)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", inputPath, err)
	}
	defer zr.Close()

	var contentFile *zip.File
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return fmt.Errorf("%s has no content.xml", inputPath)
	}

	rc, err := contentFile.Open()
	if err != nil {
		return err
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return err
	}

	splices, err := cellSplices(content, targets)
	if err != nil {
		return err
	}
	rewritten := applySplices(content, splices)
	rewritten = injectStyle(rewritten)

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)

	for _, f := range zr.File {
		if f.Name == "content.xml" {
			w, err := zw.CreateHeader(&zip.FileHeader{Name: "content.xml", Method: zip.Deflate})
			if err != nil {
				return err
			}
			if _, err := w.Write(rewritten); err != nil {
				return err
			}
			continue
		}
		// Unchanged entries keep their raw compressed bytes; this also
		// preserves the stored, first-entry mimetype the format requires.
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("could not copy %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// cellKey addresses one worksheet cell during the content.xml walk.
type cellKey struct {
	sheet string
	row   int
	col   int
}

// cellSplices locates the byte range of each target cell element and builds
// its replacement. Counters mirror the extractor's walk so locations line up.
func cellSplices(content []byte, targets []*finding.Finding) ([]splice, error) {
	want := make(map[cellKey]*finding.Finding, len(targets))
	for _, t := range targets {
		col, err := excelize.ColumnNameToNumber(t.Cell.Column)
		if err != nil {
			return nil, fmt.Errorf("invalid column %q: %w", t.Cell.Column, err)
		}
		want[cellKey{t.Cell.Sheet, t.Cell.Row, col}] = t
	}

	dec := xml.NewDecoder(bytes.NewReader(content))
	var (
		splices   []splice
		sheet     string
		row, col  int
		rowRepeat int

		pending    *finding.Finding // cell element currently being skipped
		cellStart  int64
		cellDepth  int
		depth      int
		prevOffset int64
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
			depth++
			if el.Name.Space != tableNS {
				break
			}
			switch el.Name.Local {
			case "table":
				sheet = attr(el, "name")
				if sheet == "" {
					sheet = "Sheet"
				}
				row = 0
			case "table-row":
				rowRepeat = repeat(el, "number-rows-repeated")
				row++
				col = 0
			case "table-cell", "covered-table-cell":
				rep := repeat(el, "number-columns-repeated")
				if rep > 100 {
					col += rep
					break
				}
				col++
				if pending == nil {
					if t, ok := want[cellKey{sheet, row, col}]; ok {
						pending = t
						cellStart = prevOffset
						cellDepth = depth
					}
				}
				col += rep - 1
			}
		case xml.EndElement:
			if el.Name.Space == tableNS && el.Name.Local == "table-row" {
				row += rowRepeat - 1
				rowRepeat = 0
			}
			if pending != nil && depth == cellDepth {
				splices = append(splices, splice{
					start: cellStart,
					end:   dec.InputOffset(),
					repl:  replacementCell(pending),
				})
				pending = nil
			}
			depth--
		}
		prevOffset = dec.InputOffset()
	}

	if len(splices) != len(targets) {
		return nil, fmt.Errorf("located %d of %d flagged cells in content.xml", len(splices), len(targets))
	}
	return splices, nil
}

// replacementCell renders the substitute element. Only prefixes every
// content.xml declares (table, office, text) are used.
func replacementCell(f *finding.Finding) []byte {
	var b bytes.Buffer
	b.WriteString(`<table:table-cell table:style-name="` + styleName + `" office:value-type="string"><text:p>`)
	if err := xml.EscapeText(&b, []byte(f.Placeholder())); err != nil {
		b.WriteString(strconv.Itoa(f.ID))
	}
	b.WriteString(`</text:p></table:table-cell>`)
	return b.Bytes()
}

func applySplices(content []byte, splices []splice) []byte {
	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })

	var out bytes.Buffer
	var pos int64
	for _, s := range splices {
		out.Write(content[pos:s.start])
		out.Write(s.repl)
		pos = s.end
	}
	out.Write(content[pos:])
	return out.Bytes()
}

// injectStyle adds the yellow-background cell style to automatic-styles.
// If the element cannot be found the cells are still replaced, just without
// the highlight.
func injectStyle(content []byte) []byte {
	style := []byte(`<style:style style:name="` + styleName + `" style:family="table-cell">` +
		`<style:table-cell-properties fo:background-color="#` + highlightColor + `"/></style:style>`)

	if idx := bytes.Index(content, []byte("</office:automatic-styles>")); idx >= 0 {
		var out bytes.Buffer
		out.Write(content[:idx])
		out.Write(style)
		out.Write(content[idx:])
		return out.Bytes()
	}
	if idx := bytes.Index(content, []byte("<office:automatic-styles/>")); idx >= 0 {
		var out bytes.Buffer
		out.Write(content[:idx])
		out.WriteString("<office:automatic-styles>")
		out.Write(style)
		out.WriteString("</office:automatic-styles>")
		out.Write(content[idx+len("<office:automatic-styles/>"):])
		return out.Bytes()
	}
	return content
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Space == tableNS && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func repeat(el xml.StartElement, local string) int {
	v := attr(el, local)
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
