package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrAnalyzerUnavailable indicates the structured analyzer failed or timed
// out. Callers substitute the deterministic fallback analysis; the error
// never propagates past the graph builder boundary.
var ErrAnalyzerUnavailable = errors.New("structured analyzer unavailable")

// Fallback field defaults used when the analyzer fails or its output cannot
// be parsed as the expected structure.
const (
	FallbackTopic         = "General Discussion"
	FallbackDecisionPoint = "Topic Discussion"
	FallbackContextLimit  = 100
)

// FallbackOptions are the option strings substituted when the analyzer
// output carries none
func FallbackOptions() []string {
	return []string{"Continue", "Explore Further"}
}

// FallbackNextSteps are the next-step strings substituted when the analyzer
// output carries none
func FallbackNextSteps() []string {
	return []string{"Continue conversation"}
}

// StructuredAnalysis is the best-effort structured description of a
// conversation chunk produced by the analyzer (or the fallback).
type StructuredAnalysis struct {
	Topic         string   `json:"topic"`
	DecisionPoint string   `json:"decision_point"`
	Options       []string `json:"options"`
	Context       string   `json:"context"`
	NextSteps     []string `json:"next_steps"`
}

// Analyzer produces a raw model response for a chunk of conversation text.
// The response is expected to contain a JSON object with the
// StructuredAnalysis keys but may be malformed or missing keys entirely.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}

// Fallback returns the deterministic analysis substituted when the analyzer
// fails or returns nothing parseable
func Fallback(chunkText string) StructuredAnalysis {
	return StructuredAnalysis{
		Topic:         FallbackTopic,
		DecisionPoint: FallbackDecisionPoint,
		Options:       FallbackOptions(),
		Context:       truncate(chunkText, FallbackContextLimit),
		NextSteps:     FallbackNextSteps(),
	}
}

// Parse extracts a StructuredAnalysis from raw analyzer output. Parsing is
// lenient: the substring between the first '{' and the last '}' is decoded,
// and missing keys take their per-field defaults. When no parseable payload
// exists at all, the full fallback is returned. Parse never fails.
func Parse(raw, chunkText string) StructuredAnalysis {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return Fallback(chunkText)
	}

	var parsed StructuredAnalysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return Fallback(chunkText)
	}

	// Per-field defaults: a parseable payload with missing keys is not a
	// full-fallback case.
	if parsed.Topic == "" {
		parsed.Topic = FallbackTopic
	}
	if parsed.DecisionPoint == "" {
		parsed.DecisionPoint = FallbackDecisionPoint
	}
	if len(parsed.Options) == 0 {
		parsed.Options = FallbackOptions()
	}
	if parsed.Context == "" {
		parsed.Context = truncate(chunkText, FallbackContextLimit)
	}
	if len(parsed.NextSteps) == 0 {
		parsed.NextSteps = FallbackNextSteps()
	}

	return parsed
}

// truncate cuts s to at most limit bytes, backing up to the nearest rune
// boundary so the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
