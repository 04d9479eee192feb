package transcript

import (
	"testing"
	"time"
)

func TestNewBuffer(t *testing.T) {
	buffer := NewBuffer()
	if buffer == nil {
		t.Fatal("NewBuffer returned nil")
	}

	if buffer.Len() != 0 {
		t.Errorf("New buffer should be empty, got %d utterances", buffer.Len())
	}

	if buffer.LastID() != -1 {
		t.Errorf("Empty buffer should report last id -1, got %d", buffer.LastID())
	}
}

func TestBufferAppendAssignsMonotonicIDs(t *testing.T) {
	buffer := NewBuffer()
	now := time.Now()

	texts := []string{"I want coffee", "Coffee sounds great", "Let's go to the store"}
	for i, text := range texts {
		u := buffer.Append(text, now.Add(time.Duration(i)*time.Second))

		if u.ID != int64(i) {
			t.Errorf("Expected utterance id %d, got %d", i, u.ID)
		}
		if u.Text != text {
			t.Errorf("Expected text '%s', got '%s'", text, u.Text)
		}
	}

	if buffer.Len() != len(texts) {
		t.Errorf("Expected %d utterances, got %d", len(texts), buffer.Len())
	}

	if buffer.LastID() != int64(len(texts)-1) {
		t.Errorf("Expected last id %d, got %d", len(texts)-1, buffer.LastID())
	}
}

func TestBufferRecentWindow(t *testing.T) {
	buffer := NewBuffer()
	now := time.Now()

	for i := 0; i < 15; i++ {
		buffer.Append("utterance", now)
	}

	tests := []struct {
		name        string
		n           int
		expectLen   int
		expectFirst int64
	}{
		{name: "window smaller than buffer", n: 10, expectLen: 10, expectFirst: 5},
		{name: "window equal to buffer", n: 15, expectLen: 15, expectFirst: 0},
		{name: "window larger than buffer", n: 100, expectLen: 15, expectFirst: 0},
		{name: "window of one", n: 1, expectLen: 1, expectFirst: 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := buffer.RecentWindow(tt.n)

			if len(window) != tt.expectLen {
				t.Fatalf("Expected window of %d utterances, got %d", tt.expectLen, len(window))
			}

			if window[0].ID != tt.expectFirst {
				t.Errorf("Expected first id %d, got %d", tt.expectFirst, window[0].ID)
			}

			// Window must preserve insertion order
			for i := 1; i < len(window); i++ {
				if window[i].ID != window[i-1].ID+1 {
					t.Errorf("Window ids not consecutive at index %d: %d after %d",
						i, window[i].ID, window[i-1].ID)
				}
			}
		})
	}
}

func TestBufferRecentWindowEmptyAndInvalid(t *testing.T) {
	buffer := NewBuffer()

	if window := buffer.RecentWindow(5); len(window) != 0 {
		t.Errorf("Expected empty window from empty buffer, got %d", len(window))
	}

	buffer.Append("hello", time.Now())

	if window := buffer.RecentWindow(0); window != nil {
		t.Errorf("Expected nil window for n=0, got %v", window)
	}

	if window := buffer.RecentWindow(-1); window != nil {
		t.Errorf("Expected nil window for negative n, got %v", window)
	}
}

func TestBufferAllReturnsCopy(t *testing.T) {
	buffer := NewBuffer()
	buffer.Append("first", time.Now())
	buffer.Append("second", time.Now())

	all := buffer.All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 utterances, got %d", len(all))
	}

	// Mutating the snapshot must not affect the buffer
	all[0].Text = "mutated"

	fresh := buffer.All()
	if fresh[0].Text != "first" {
		t.Errorf("Buffer contents changed through snapshot: got '%s'", fresh[0].Text)
	}
}

func TestBufferStats(t *testing.T) {
	buffer := NewBuffer()

	stats := buffer.GetStats()
	if stats.TotalUtterances != 0 {
		t.Errorf("Expected 0 total utterances, got %d", stats.TotalUtterances)
	}
	if stats.LastUtteranceID != -1 {
		t.Errorf("Expected last utterance id -1, got %d", stats.LastUtteranceID)
	}

	buffer.Append("one", time.Now())
	buffer.Append("two", time.Now())

	stats = buffer.GetStats()
	if stats.TotalUtterances != 2 {
		t.Errorf("Expected 2 total utterances, got %d", stats.TotalUtterances)
	}
	if stats.LastUtteranceID != 1 {
		t.Errorf("Expected last utterance id 1, got %d", stats.LastUtteranceID)
	}
	if stats.LastAppend.IsZero() {
		t.Error("Expected last append time to be set")
	}
}
