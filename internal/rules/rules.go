// Package rules holds the formula risk-keyword rule set.
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultKeywords are the formula functions and shell artifacts associated
// with network access, dynamic execution, or external process invocation.
var defaultKeywords = []string{
	"WEBSERVICE",
	"FILTERXML",
	"RTD",
	"CALL",
	"REGISTER",
	"EXEC",
	"DDE",
	"DDEAUTO",
	"HYPERLINK",
	"IMPORTXML",
	"IMPORTDATA",
	"IMPORTHTML",
	"cmd",
	"powershell",
	"mshta",
	"rundll32",
	"Shell",
	"CreateObject",
	"GetObject",
	"URLDownloadToFile",
	"XMLHTTP",
	"WScript",
}

// Set is a case-insensitive keyword matcher for formula text.
type Set struct {
	keywords []string // original casing, for display
	lowered  []string
}

// Default returns the built-in rule set.
func Default() *Set {
	return newSet(defaultKeywords)
}

// keywordsFile is the YAML shape accepted by Load.
type keywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// Load reads a YAML keyword override file. An empty keyword list falls back
// to the defaults.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read keywords file %s: %w", path, err)
	}

	var kf keywordsFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("could not parse keywords file %s: %w", path, err)
	}

	if len(kf.Keywords) == 0 {
		return Default(), nil
	}
	return newSet(kf.Keywords), nil
}

func newSet(keywords []string) *Set {
	s := &Set{}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		s.keywords = append(s.keywords, k)
		s.lowered = append(s.lowered, strings.ToLower(k))
	}
	return s
}

// Match reports whether the formula text contains any keyword, and returns
// the first keyword that hit.
func (s *Set) Match(formula string) (string, bool) {
	lower := strings.ToLower(formula)
	for i, k := range s.lowered {
		if strings.Contains(lower, k) {
			return s.keywords[i], true
		}
	}
	return "", false
}

// Keywords returns the active keyword list in declaration order.
func (s *Set) Keywords() []string {
	out := make([]string, len(s.keywords))
	copy(out, s.keywords)
	return out
}
