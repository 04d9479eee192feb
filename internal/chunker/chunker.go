package chunker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aashmango/llama-fun/internal/embedding"
	"github.com/aashmango/llama-fun/internal/transcript"
)

// SemanticChunk represents a maximal run of consecutive utterances whose
// adjacent cosine similarities all exceed the configured threshold.
// Chunks are immutable after creation.
type SemanticChunk struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Members   []transcript.Utterance `json:"members"`
	Timestamp time.Time              `json:"timestamp"` // timestamp of first member
	Embedding []float32              `json:"-"`
}

// MemberIDs returns the utterance ids of the chunk members in order
func (c *SemanticChunk) MemberIDs() []int64 {
	ids := make([]int64, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

// Config contains configuration for the chunking process
type Config struct {
	WindowSize          int     // most recent utterances considered per invocation
	SimilarityThreshold float64 // adjacent cosine similarity cutoff, in (0,1)
	MinChunkSize        int     // minimum members per chunk, at least 2
}

// Chunker groups a sliding window of recent utterances into semantic chunks.
// It tracks the highest utterance id already consumed by an emitted chunk so
// overlapping windows never produce duplicate membership.
type Chunker struct {
	config   Config
	provider embedding.Provider

	// Boundary bookkeeping: no group may start at or before this id.
	consumedThroughID int64

	// Chunk identity
	nextChunkIndex int

	// Statistics
	chunksCreated uint64
	lastRun       time.Time

	mu sync.RWMutex
}

// Stats represents chunker statistics
type Stats struct {
	ChunksCreated     uint64    `json:"chunks_created"`
	ConsumedThroughID int64     `json:"consumed_through_id"`
	LastRun           time.Time `json:"last_run"`
	Threshold         float64   `json:"threshold"`
	WindowSize        int       `json:"window_size"`
}

// NewChunker creates a new semantic chunker
func NewChunker(config Config, provider embedding.Provider) (*Chunker, error) {
	if config.SimilarityThreshold <= 0 || config.SimilarityThreshold >= 1 {
		return nil, fmt.Errorf("similarity threshold must be between 0 and 1, got %f", config.SimilarityThreshold)
	}

	if config.WindowSize < 2 {
		return nil, fmt.Errorf("window size must be at least 2, got %d", config.WindowSize)
	}

	if config.MinChunkSize < 2 {
		config.MinChunkSize = 2
	}

	if provider == nil {
		return nil, fmt.Errorf("embedding provider cannot be nil")
	}

	return &Chunker{
		config:            config,
		provider:          provider,
		consumedThroughID: -1,
	}, nil
}

// Process groups the given window of recent utterances into zero or more
// semantic chunks. Utterances already consumed by a previously emitted chunk
// are skipped. A trailing single-member group is not emitted; it is left for
// the next invocation to potentially extend.
//
// The call is atomic: if the embedding provider fails, no chunker state is
// mutated and the same window can be retried on the next utterance arrival.
func (c *Chunker) Process(ctx context.Context, window []transcript.Utterance) ([]*SemanticChunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(window) > c.config.WindowSize {
		window = window[len(window)-c.config.WindowSize:]
	}

	// Drop utterances already owned by an emitted chunk
	fresh := window[:0:0]
	for _, u := range window {
		if u.ID > c.consumedThroughID {
			fresh = append(fresh, u)
		}
	}

	// Fewer than two fresh utterances is a no-op, not an error
	if len(fresh) < 2 {
		return nil, nil
	}

	texts := make([]string, len(fresh))
	for i, u := range fresh {
		texts[i] = u.Text
	}

	vectors, err := c.provider.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed window of %d utterances: %w", len(fresh), err)
	}

	groups := c.groupBySimilarity(fresh, vectors)
	if len(groups) == 0 {
		c.lastRun = time.Now()
		return nil, nil
	}

	// Embed the joined chunk texts in one batched call before any state is
	// committed, keeping the emit-or-nothing guarantee.
	chunkTexts := make([]string, len(groups))
	for i, g := range groups {
		chunkTexts[i] = joinTexts(g)
	}

	chunkVectors, err := c.provider.Embed(ctx, chunkTexts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunk texts: %w", len(groups), err)
	}

	chunks := make([]*SemanticChunk, len(groups))
	for i, g := range groups {
		members := make([]transcript.Utterance, len(g))
		copy(members, g)

		chunks[i] = &SemanticChunk{
			ID:        fmt.Sprintf("chunk_%d", c.nextChunkIndex),
			Text:      chunkTexts[i],
			Members:   members,
			Timestamp: members[0].Timestamp,
			Embedding: chunkVectors[i],
		}
		c.nextChunkIndex++
		c.chunksCreated++

		// Advance the consumption boundary past every member
		lastID := members[len(members)-1].ID
		if lastID > c.consumedThroughID {
			c.consumedThroughID = lastID
		}
	}

	c.lastRun = time.Now()

	return chunks, nil
}

// groupBySimilarity performs greedy sequential grouping: an utterance joins
// the open group when its similarity to the immediately preceding utterance
// exceeds the threshold, otherwise the open group is closed (kept only with
// enough members) and a new one starts. At window end the trailing group
// closes too when it has enough members; only a trailing single-member group
// waits for more input.
func (c *Chunker) groupBySimilarity(window []transcript.Utterance, vectors [][]float32) [][]transcript.Utterance {
	sims := embedding.AdjacentSimilarities(vectors)

	var groups [][]transcript.Utterance
	current := []transcript.Utterance{window[0]}

	for i := 1; i < len(window); i++ {
		if sims[i-1] > c.config.SimilarityThreshold {
			current = append(current, window[i])
			continue
		}

		if len(current) >= c.config.MinChunkSize {
			groups = append(groups, current)
		}
		current = []transcript.Utterance{window[i]}
	}

	if len(current) >= c.config.MinChunkSize {
		groups = append(groups, current)
	}

	return groups
}

func joinTexts(utterances []transcript.Utterance) string {
	parts := make([]string, len(utterances))
	for i, u := range utterances {
		parts[i] = u.Text
	}
	return strings.Join(parts, " ")
}

// ConsumedThroughID returns the highest utterance id consumed by any
// emitted chunk, or -1 if none
func (c *Chunker) ConsumedThroughID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consumedThroughID
}

// GetStats returns current chunker statistics
func (c *Chunker) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		ChunksCreated:     c.chunksCreated,
		ConsumedThroughID: c.consumedThroughID,
		LastRun:           c.lastRun,
		Threshold:         c.config.SimilarityThreshold,
		WindowSize:        c.config.WindowSize,
	}
}
