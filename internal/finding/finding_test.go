package finding

import "testing"

func TestScoredClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{10, 10},
		{15, 10},
		{7, 7},
	}
	for _, tt := range tests {
		r := Scored(tt.in, "x")
		if r.Score != tt.want {
			t.Errorf("Scored(%d).Score = %d, want %d", tt.in, r.Score, tt.want)
		}
	}
}

func TestSetResultOnce(t *testing.T) {
	f := &Finding{ID: 1, Kind: KindFormula}
	f.SetResult(Scored(4, "first"))
	f.SetResult(Scored(9, "second"))

	if f.Result.Score != 4 || f.Result.Rationale != "first" {
		t.Errorf("result was overwritten: %+v", f.Result)
	}

	g := &Finding{ID: 2, Kind: KindMacro}
	g.SetResult(Failed("provider down"))
	g.SetResult(Scored(10, "late"))
	if g.Result.State != StateFailed {
		t.Errorf("failed result was overwritten: %+v", g.Result)
	}
}

func TestRemovable(t *testing.T) {
	cell := &CellRef{Sheet: "Sheet1", Column: "A", Row: 1}

	tests := []struct {
		name string
		f    Finding
		want bool
	}{
		{"scored formula below threshold", Finding{Kind: KindFormula, Cell: cell, Result: Scored(4, "")}, true},
		{"scored formula at threshold", Finding{Kind: KindFormula, Cell: cell, Result: Scored(5, "")}, false},
		{"scored formula above threshold", Finding{Kind: KindFormula, Cell: cell, Result: Scored(9, "")}, false},
		{"macro below threshold", Finding{Kind: KindMacro, Result: Scored(2, "")}, false},
		{"unscored formula", Finding{Kind: KindFormula, Cell: cell, Result: Failed("boom")}, false},
		{"pending formula", Finding{Kind: KindFormula, Cell: cell}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Removable(5); got != tt.want {
			t.Errorf("%s: Removable(5) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	f := &Finding{ID: 2}
	if got := f.Placeholder(); got != "CODE REMOVED: Item #2" {
		t.Errorf("Placeholder() = %q", got)
	}
}

func TestCellRef(t *testing.T) {
	c := CellRef{Sheet: "Data", Column: "BC", Row: 12}
	if c.Ref() != "BC12" {
		t.Errorf("Ref() = %q, want BC12", c.Ref())
	}
}
