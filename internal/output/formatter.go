// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Writer handles formatted output to a destination.
type Writer struct {
	dest io.Writer
	json bool
}

// NewWriter creates an output writer. When jsonMode is set, WriteResult
// emits machine-readable JSON instead of text.
func NewWriter(jsonMode bool) *Writer {
	return &Writer{dest: os.Stdout, json: jsonMode}
}

// JSON reports whether the writer is in JSON mode.
func (w *Writer) JSON() bool { return w.json }

// WriteResult encodes a value as pretty-printed JSON.
func (w *Writer) WriteResult(v interface{}) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
