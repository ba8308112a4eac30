package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRead(t *testing.T) {
	s := NewStore(t.TempDir(), true)

	s.Record(Entry{
		Timestamp: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		InputFile: "budget.xlsm",
		Format:    "xlsm",
		Findings:  3,
		Removed:   1,
		Threshold: 5,
	})
	s.Record(Entry{
		Timestamp: time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC),
		InputFile: "clean.ods",
		Format:    "ods",
	})

	entries, err := s.ReadEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].InputFile != "budget.xlsm" || entries[0].Removed != 1 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Format != "ods" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestRecordDisabled(t *testing.T) {
	s := NewStore(t.TempDir(), false)
	s.Record(Entry{InputFile: "x.xlsx"})

	if _, err := os.Stat(s.Path); !os.IsNotExist(err) {
		t.Error("disabled store should not write a log")
	}
}

func TestReadEntriesMissingLog(t *testing.T) {
	s := NewStore(t.TempDir(), true)
	entries, err := s.ReadEntries()
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestReadEntriesSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, true)
	s.Record(Entry{InputFile: "good.xlsx"})

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()
	s.Record(Entry{InputFile: "also-good.xlsx"})

	entries, err := s.ReadEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(entries))
	}
}

func TestFilter(t *testing.T) {
	entries := []Entry{
		{Timestamp: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), InputFile: "a/budget.xlsm"},
		{Timestamp: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), InputFile: "b/invoices.ods"},
		{Timestamp: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), InputFile: "c/budget-v2.xlsx"},
	}

	if got := Filter(entries, time.Time{}, ""); len(got) != 3 {
		t.Errorf("no filter: %d entries", len(got))
	}
	if got := Filter(entries, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), ""); len(got) != 2 {
		t.Errorf("since filter: %d entries", len(got))
	}
	got := Filter(entries, time.Time{}, "budget")
	if len(got) != 2 {
		t.Fatalf("file filter: %d entries", len(got))
	}
	if got := Filter(entries, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), "budget"); len(got) != 1 {
		t.Errorf("combined filter: %d entries", len(got))
	}
}

func TestStorePath(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, true)
	if s.Path != filepath.Join(dir, "history.jsonl") {
		t.Errorf("Path = %s", s.Path)
	}
}
