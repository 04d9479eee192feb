package embedding

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1.0,
		},
		{
			name:     "scaled vectors have similarity 1",
			a:        []float32{1, 2},
			b:        []float32{3, 6},
			expected: 1.0,
		},
		{
			name:     "zero vector yields 0",
			a:        []float32{0, 0},
			b:        []float32{1, 1},
			expected: 0.0,
		},
		{
			name:     "empty vectors yield 0",
			a:        nil,
			b:        nil,
			expected: 0.0,
		},
		{
			name:     "mismatched lengths yield 0",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Cosine(%v, %v) = %f, expected %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestAdjacentSimilarities(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{1, 0},
		{0, 1},
		{0, -1},
	}

	sims := AdjacentSimilarities(vectors)
	if len(sims) != 3 {
		t.Fatalf("Expected 3 adjacent similarities, got %d", len(sims))
	}

	expected := []float64{1.0, 0.0, -1.0}
	for i, want := range expected {
		if math.Abs(sims[i]-want) > 1e-9 {
			t.Errorf("Similarity %d: got %f, expected %f", i, sims[i], want)
		}
	}
}

func TestAdjacentSimilaritiesShortInput(t *testing.T) {
	if sims := AdjacentSimilarities(nil); sims != nil {
		t.Errorf("Expected nil for empty input, got %v", sims)
	}

	if sims := AdjacentSimilarities([][]float32{{1, 0}}); sims != nil {
		t.Errorf("Expected nil for single vector, got %v", sims)
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
				Model:    "text-embedding-3-small",
			},
			expectError: false,
		},
		{
			name: "missing endpoint",
			config: Config{
				APIKey: "test-key",
				Model:  "text-embedding-3-small",
			},
			expectError: true,
		},
		{
			name: "missing api key",
			config: Config{
				Endpoint: "https://api.example.com/v1",
				Model:    "text-embedding-3-small",
			},
			expectError: true,
		},
		{
			name: "missing model",
			config: Config{
				Endpoint: "https://api.example.com/v1",
				APIKey:   "test-key",
			},
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
