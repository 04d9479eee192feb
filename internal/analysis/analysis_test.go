package analysis

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseWellFormedPayload(t *testing.T) {
	raw := `{"topic":"Drinks","decision_point":"Choose beverage","options":["Coffee","Tea"],"context":"morning chat","next_steps":["order"]}`

	result := Parse(raw, "I want coffee Coffee sounds great")

	if result.Topic != "Drinks" {
		t.Errorf("Expected topic 'Drinks', got '%s'", result.Topic)
	}
	if result.DecisionPoint != "Choose beverage" {
		t.Errorf("Expected decision point 'Choose beverage', got '%s'", result.DecisionPoint)
	}
	if !reflect.DeepEqual(result.Options, []string{"Coffee", "Tea"}) {
		t.Errorf("Expected options [Coffee Tea], got %v", result.Options)
	}
	if result.Context != "morning chat" {
		t.Errorf("Expected context 'morning chat', got '%s'", result.Context)
	}
	if !reflect.DeepEqual(result.NextSteps, []string{"order"}) {
		t.Errorf("Expected next steps [order], got %v", result.NextSteps)
	}
}

func TestParseExtractsEmbeddedJSON(t *testing.T) {
	// Models often wrap the payload in prose; parsing takes the substring
	// between the first '{' and the last '}'.
	raw := `Here is my analysis of the conversation:
{"topic":"Travel","decision_point":"Pick destination","options":["Beach","Mountains"],"context":"vacation planning","next_steps":["book flights"]}
Let me know if you need more detail.`

	result := Parse(raw, "chunk text")

	if result.Topic != "Travel" {
		t.Errorf("Expected topic 'Travel', got '%s'", result.Topic)
	}
	if len(result.Options) != 2 {
		t.Errorf("Expected 2 options, got %d", len(result.Options))
	}
}

func TestParseMalformedPayloadFallsBack(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json at all", raw: "not json"},
		{name: "empty response", raw: ""},
		{name: "unbalanced braces", raw: "}{"},
		{name: "invalid json between braces", raw: "{topic: unquoted}"},
		{name: "only opening brace", raw: "{"},
	}

	chunkText := "I want coffee Coffee sounds great"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.raw, chunkText)

			if result.Topic != FallbackTopic {
				t.Errorf("Expected fallback topic '%s', got '%s'", FallbackTopic, result.Topic)
			}
			if result.DecisionPoint != FallbackDecisionPoint {
				t.Errorf("Expected fallback decision point '%s', got '%s'",
					FallbackDecisionPoint, result.DecisionPoint)
			}
			if !reflect.DeepEqual(result.Options, FallbackOptions()) {
				t.Errorf("Expected fallback options, got %v", result.Options)
			}
			if result.Context != chunkText {
				t.Errorf("Expected context to carry the chunk text, got '%s'", result.Context)
			}
		})
	}
}

func TestParseMissingKeysUsePerFieldDefaults(t *testing.T) {
	// A parseable payload with missing keys takes per-field defaults, not
	// the full fallback.
	raw := `{"topic":"Budget"}`

	result := Parse(raw, "chunk text")

	if result.Topic != "Budget" {
		t.Errorf("Parsed topic must be kept, got '%s'", result.Topic)
	}
	if result.DecisionPoint != FallbackDecisionPoint {
		t.Errorf("Missing decision point should default, got '%s'", result.DecisionPoint)
	}
	if !reflect.DeepEqual(result.Options, FallbackOptions()) {
		t.Errorf("Missing options should default, got %v", result.Options)
	}
	if result.Context != "chunk text" {
		t.Errorf("Missing context should default to chunk text, got '%s'", result.Context)
	}
	if !reflect.DeepEqual(result.NextSteps, FallbackNextSteps()) {
		t.Errorf("Missing next steps should default, got %v", result.NextSteps)
	}
}

func TestParseFallbackContextTruncation(t *testing.T) {
	longText := strings.Repeat("a", 250)

	result := Parse("not json", longText)

	if len(result.Context) != FallbackContextLimit {
		t.Errorf("Expected context truncated to %d bytes, got %d",
			FallbackContextLimit, len(result.Context))
	}
}

func TestParseFallbackContextKeepsRunesWhole(t *testing.T) {
	// 100 bytes falls mid-rune for two-byte characters; truncation must back
	// up to the rune boundary instead of emitting a broken sequence.
	longText := strings.Repeat("é", 80)

	result := Parse("not json", longText)

	if !utf8.ValidString(result.Context) {
		t.Errorf("Truncated context is not valid UTF-8: %q", result.Context)
	}
	if len(result.Context) > FallbackContextLimit {
		t.Errorf("Context exceeds %d bytes: %d", FallbackContextLimit, len(result.Context))
	}
	if !strings.HasPrefix(longText, result.Context) {
		t.Error("Truncated context must be a prefix of the chunk text")
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	first := Fallback("some chunk text")
	second := Fallback("some chunk text")

	if !reflect.DeepEqual(first, second) {
		t.Error("Fallback must be deterministic for the same chunk text")
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name: "valid configuration",
			config: Config{
				Endpoint: "https://api.example.com/v1",
				APIKey:   "test-key",
				Model:    "gpt-4o-mini",
			},
			expectError: false,
		},
		{
			name:        "missing endpoint",
			config:      Config{APIKey: "test-key", Model: "gpt-4o-mini"},
			expectError: true,
		},
		{
			name:        "missing api key",
			config:      Config{Endpoint: "https://api.example.com/v1", Model: "gpt-4o-mini"},
			expectError: true,
		},
		{
			name:        "missing model",
			config:      Config{Endpoint: "https://api.example.com/v1", APIKey: "test-key"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("NewClient returned nil client")
			}
		})
	}
}
