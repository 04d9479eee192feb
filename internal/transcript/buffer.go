package transcript

import (
	"sync"
	"time"
)

// Utterance represents one timestamped unit of transcribed text.
// Utterances are immutable once created and are identified by a
// monotonically increasing id assigned by the owning buffer.
type Utterance struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer is an append-only sequence of utterances for a conversation
// session. The buffer never evicts entries; it grows for the lifetime
// of the session while analysis only ever touches a bounded recent window.
type Buffer struct {
	utterances []Utterance
	nextID     int64

	// Timing and metadata
	lastAppend time.Time

	mu sync.RWMutex
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	TotalUtterances int       `json:"total_utterances"`
	LastUtteranceID int64     `json:"last_utterance_id"`
	LastAppend      time.Time `json:"last_append"`
}

// NewBuffer creates a new empty utterance buffer
func NewBuffer() *Buffer {
	return &Buffer{
		utterances: make([]Utterance, 0, 64),
	}
}

// Append adds a new utterance to the buffer and assigns its id.
// The returned utterance is a copy; the stored entry is never mutated.
func (b *Buffer) Append(text string, timestamp time.Time) Utterance {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := Utterance{
		ID:        b.nextID,
		Text:      text,
		Timestamp: timestamp,
	}
	b.nextID++
	b.utterances = append(b.utterances, u)
	b.lastAppend = time.Now()

	return u
}

// RecentWindow returns the last n utterances in insertion order,
// or fewer if the buffer is shorter. The returned slice is a copy.
func (b *Buffer) RecentWindow(n int) []Utterance {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	start := len(b.utterances) - n
	if start < 0 {
		start = 0
	}

	window := make([]Utterance, len(b.utterances)-start)
	copy(window, b.utterances[start:])

	return window
}

// All returns a snapshot copy of every utterance in insertion order
func (b *Buffer) All() []Utterance {
	b.mu.RLock()
	defer b.mu.RUnlock()

	all := make([]Utterance, len(b.utterances))
	copy(all, b.utterances)

	return all
}

// Len returns the current number of utterances in the buffer
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.utterances)
}

// LastID returns the id of the most recently appended utterance,
// or -1 if the buffer is empty
func (b *Buffer) LastID() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextID - 1
}

// GetLastAppend returns the time of the last append
func (b *Buffer) GetLastAppend() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastAppend
}

// GetStats returns current buffer statistics
func (b *Buffer) GetStats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BufferStats{
		TotalUtterances: len(b.utterances),
		LastUtteranceID: b.nextID - 1,
		LastAppend:      b.lastAppend,
	}
}
