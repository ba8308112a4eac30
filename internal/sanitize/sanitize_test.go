package sanitize

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetcheck/internal/extract"
	"github.com/klytics/sheetcheck/internal/finding"
)

func makeXLSX(t *testing.T, name string, formulas map[string]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for cell, formula := range formulas {
		if err := f.SetCellFormula("Sheet1", cell, formula); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func scoredFormula(id int, sheet, column string, row, score int) *finding.Finding {
	f := &finding.Finding{
		ID:       id,
		Kind:     finding.KindFormula,
		Location: sheet + "!" + column,
		Cell:     &finding.CellRef{Sheet: sheet, Column: column, Row: row},
	}
	f.SetResult(finding.Scored(score, "test"))
	return f
}

func TestWriteCopyWorkbook(t *testing.T) {
	in := makeXLSX(t, "risky.xlsx", map[string]string{
		"A1": "SUM(A2:A10)",
		"B2": `WEBSERVICE("http://x")`,
		"C3": `HYPERLINK("http://x","go")`,
	})
	out := filepath.Join(t.TempDir(), "sanitized.xlsx")

	findings := []*finding.Finding{
		scoredFormula(1, "Sheet1", "B", 2, 2), // removed
		scoredFormula(2, "Sheet1", "C", 3, 8), // kept
	}

	removed, err := WriteCopy(in, extract.FormatXLSX, findings, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	val, err := f.GetCellValue("Sheet1", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if val != "CODE REMOVED: Item #1" {
		t.Errorf("B2 = %q, want placeholder", val)
	}
	formula, _ := f.GetCellFormula("Sheet1", "B2")
	if formula != "" {
		t.Errorf("B2 formula = %q, want cleared", formula)
	}

	// Cells at or above threshold keep their formulas.
	formula, _ = f.GetCellFormula("Sheet1", "C3")
	if formula == "" {
		t.Error("C3 formula was removed despite its score")
	}
	formula, _ = f.GetCellFormula("Sheet1", "A1")
	if !strings.Contains(formula, "SUM") {
		t.Errorf("A1 formula = %q, want untouched SUM", formula)
	}
}

func TestWriteCopyUnscoredNeverRemoved(t *testing.T) {
	in := makeXLSX(t, "in.xlsx", map[string]string{"B2": `WEBSERVICE("http://x")`})
	out := filepath.Join(t.TempDir(), "out.xlsx")

	f := &finding.Finding{
		ID:   1,
		Kind: finding.KindFormula,
		Cell: &finding.CellRef{Sheet: "Sheet1", Column: "B", Row: 2},
	}
	f.SetResult(finding.Failed("provider unavailable"))

	removed, err := WriteCopy(in, extract.FormatXLSX, []*finding.Finding{f}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}

func TestWriteCopyNoTargetsIsByteCopy(t *testing.T) {
	in := makeXLSX(t, "clean.xlsx", map[string]string{"A1": "SUM(A2:A10)"})
	out := filepath.Join(t.TempDir(), "copy.xlsx")

	removed, err := WriteCopy(in, extract.FormatXLSX, nil, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}

	want, _ := os.ReadFile(in)
	got, _ := os.ReadFile(out)
	if !bytes.Equal(want, got) {
		t.Error("copy without removals should be byte-identical")
	}
}

func TestWriteCopyWrapsErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := WriteCopy(filepath.Join(t.TempDir(), "missing.xlsx"), extract.FormatXLSX,
		[]*finding.Finding{scoredFormula(1, "Sheet1", "A", 1, 1)}, 5, out)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	var serr *finding.SanitizeError
	if !errors.As(err, &serr) {
		t.Errorf("err = %T, want *finding.SanitizeError", err)
	}
}

const odsContent = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0">
<office:automatic-styles/>
<office:body><office:spreadsheet>
<table:table table:name="Sheet1">
<table:table-row>
<table:table-cell office:value-type="string"><text:p>hello</text:p></table:table-cell>
<table:table-cell table:formula="of:=WEBSERVICE(&quot;http://x&quot;)" office:value-type="string"><text:p>x</text:p></table:table-cell>
</table:table-row>
<table:table-row>
<table:table-cell table:formula="of:=SUM([.A1:.A5])" office:value-type="float" office:value="0"><text:p>0</text:p></table:table-cell>
</table:table-row>
</table:table>
</office:spreadsheet></office:body>
</office:document-content>`

func makeODS(t *testing.T, content string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	w, _ := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	w.Write([]byte("application/vnd.oasis.opendocument.spreadsheet"))
	w, _ = zw.Create("content.xml")
	w.Write([]byte(content))
	w, _ = zw.Create("meta.xml")
	w.Write([]byte(`<?xml version="1.0"?><meta/>`))
	zw.Close()

	path := filepath.Join(t.TempDir(), "in.ods")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readZipEntry(t *testing.T, path, name string) []byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatal(err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatal(err)
			}
			return data
		}
	}
	t.Fatalf("%s has no entry %s", path, name)
	return nil
}

func TestWriteCopyODS(t *testing.T) {
	in := makeODS(t, odsContent)
	out := filepath.Join(t.TempDir(), "out.ods")

	removed, err := WriteCopy(in, extract.FormatODS,
		[]*finding.Finding{scoredFormula(1, "Sheet1", "B", 1, 2)}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	content := string(readZipEntry(t, out, "content.xml"))

	if !strings.Contains(content, "CODE REMOVED: Item #1") {
		t.Error("placeholder missing from content.xml")
	}
	if strings.Contains(content, "WEBSERVICE") {
		t.Error("flagged formula still present")
	}
	if !strings.Contains(content, `style:name="`+styleName+`"`) {
		t.Error("highlight style not injected")
	}
	if !strings.Contains(content, "#"+highlightColor) {
		t.Error("highlight fill color missing")
	}

	// Everything outside the flagged cell survives verbatim.
	if !strings.Contains(content, "<text:p>hello</text:p>") {
		t.Error("neighboring cell content lost")
	}
	if !strings.Contains(content, "of:=SUM([.A1:.A5])") {
		t.Error("unflagged formula lost")
	}

	// The mimetype entry stays first and uncompressed.
	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	if zr.File[0].Name != "mimetype" || zr.File[0].Method != zip.Store {
		t.Errorf("first entry = %s (method %d), want stored mimetype", zr.File[0].Name, zr.File[0].Method)
	}
	if string(readZipEntry(t, out, "meta.xml")) != `<?xml version="1.0"?><meta/>` {
		t.Error("untouched zip entry was altered")
	}
}

func TestWriteCopyODSMissingCell(t *testing.T) {
	in := makeODS(t, odsContent)
	out := filepath.Join(t.TempDir(), "out.ods")

	_, err := WriteCopy(in, extract.FormatODS,
		[]*finding.Finding{scoredFormula(1, "Sheet1", "Z", 99, 2)}, 5, out)
	if err == nil {
		t.Fatal("expected error when a flagged cell cannot be located")
	}
}

func TestInjectStyleSelfClosing(t *testing.T) {
	out := injectStyle([]byte(`<a><office:automatic-styles/></a>`))
	s := string(out)
	if !strings.Contains(s, "<office:automatic-styles>") || !strings.Contains(s, "</office:automatic-styles>") {
		t.Errorf("self-closing element not expanded: %s", s)
	}
	if !strings.Contains(s, styleName) {
		t.Error("style not injected")
	}
}
