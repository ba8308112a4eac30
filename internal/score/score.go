// Package score sends finding source text to an AI provider and parses the
// returned risk score.
package score

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/klytics/sheetcheck/internal/ai"
	"github.com/klytics/sheetcheck/internal/finding"
)

const systemPrompt = "You are a security analyst specializing in spreadsheet macro and formula analysis. Be concise and precise."

const promptTemplate = `Analyze the following code/macro found in a spreadsheet for security risks.

Location: %s

Code:
` + "```\n%s\n```" + `

Provide:
1. A security score from 1-10 where:
   - 1-3: Definitely malicious (file access, network calls, process execution, obfuscation)
   - 4-6: Suspicious (external references, dynamic execution, questionable patterns)
   - 7-9: Potentially risky but may be legitimate (common functions that could be misused)
   - 10: Safe (simple calculations, harmless formulas)

2. A brief analysis explaining the score (2-3 sentences)

Format your response EXACTLY as:
SCORE: <number>
ANALYSIS: <your analysis here>`

// Scorer scores findings through an AI provider. The provider handle is
// passed in explicitly so sessions stay reentrant and testable with a
// substitute backend.
type Scorer struct {
	Provider    ai.Provider
	Model       string
	Concurrency int // workers; values < 1 mean sequential

	// OnScored, when set, is called after each finding settles. Used to
	// drive progress display; must be safe for concurrent use.
	OnScored func(f *finding.Finding)
}

// ScoreAll attaches a result to every pending finding. Findings are scored
// with bounded concurrency but the slice keeps extraction order throughout;
// each result is written back to its own finding only. Per-finding failures
// become Failed results and never abort the batch. The only returned error
// is context cancellation.
func (s *Scorer) ScoreAll(ctx context.Context, findings []*finding.Finding) error {
	workers := s.Concurrency
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, f := range findings {
		if f.Result.State != finding.StatePending {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}

		wg.Add(1)
		go func(f *finding.Finding) {
			defer wg.Done()
			defer func() { <-sem }()

			f.SetResult(s.scoreOne(ctx, f))
			if s.OnScored != nil {
				s.OnScored(f)
			}
		}(f)
	}

	wg.Wait()
	return ctx.Err()
}

func (s *Scorer) scoreOne(ctx context.Context, f *finding.Finding) finding.Result {
	prompt := fmt.Sprintf(promptTemplate, f.Location, f.Source)

	res, err := s.Provider.Infer(ctx, systemPrompt, []ai.Message{
		{Role: "user", Content: prompt},
	}, ai.InferOptions{Model: s.Model, MaxTokens: 1024})
	if err != nil {
		return finding.Failed(fmt.Sprintf("%v: %v", finding.ErrScoringUnavailable, err))
	}

	score, rationale, err := ParseResponse(res.Content)
	if err != nil {
		return finding.Failed(fmt.Sprintf("%v: %v", finding.ErrScoringUnavailable, err))
	}
	return finding.Scored(score, rationale)
}

// ParseResponse extracts the score and analysis from a provider response in
// the "SCORE: <n>\nANALYSIS: <text>" format. The analysis may span multiple
// lines. Scores outside [1,10] are clamped by the caller via finding.Scored.
func ParseResponse(text string) (int, string, error) {
	var (
		score    int
		found    bool
		analysis string
	)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "SCORE:"); ok && !found {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err == nil {
				score = n
				found = true
			}
		}
	}

	if idx := strings.Index(text, "ANALYSIS:"); idx >= 0 {
		analysis = strings.TrimSpace(text[idx+len("ANALYSIS:"):])
	}

	if !found {
		return 0, "", fmt.Errorf("no SCORE line in response: %q", truncate(text, 120))
	}
	if analysis == "" {
		analysis = "No analysis provided"
	}
	return score, analysis, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
