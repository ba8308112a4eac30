// Package history keeps a local append-only log of scan runs.
// Best-effort: a history failure never blocks or fails a scan.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry records one completed scan.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	InputFile  string    `json:"input_file"`
	Format     string    `json:"format"`
	Findings   int       `json:"findings"`
	Removed    int       `json:"removed"`
	Unscored   int       `json:"unscored"`
	Threshold  int       `json:"threshold"`
	DurationMs int64     `json:"duration_ms"`
}

// Store manages the scan history log.
type Store struct {
	Path    string
	Enabled bool
}

// NewStore returns a store writing to dir/history.jsonl.
func NewStore(dir string, enabled bool) *Store {
	return &Store{
		Path:    filepath.Join(dir, "history.jsonl"),
		Enabled: enabled,
	}
}

// Record appends an entry to the log.
func (s *Store) Record(e Entry) {
	if !s.Enabled || s.Path == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return
	}

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
}

// ReadEntries reads all entries from the log. A missing log yields no
// entries and no error; malformed lines are skipped.
func (s *Store) ReadEntries() ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Filter returns entries newer than since whose input file contains file.
// Zero values match everything.
func Filter(entries []Entry, since time.Time, file string) []Entry {
	var result []Entry
	for _, e := range entries {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if file != "" && !strings.Contains(e.InputFile, file) {
			continue
		}
		result = append(result, e)
	}
	return result
}
