package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config contains embedding client configuration
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// Client is an embedding Provider backed by an OpenAI-compatible
// embeddings endpoint
type Client struct {
	config Config
	api    *openai.Client

	// Statistics
	totalRequests  uint64
	failedRequests uint64
	totalTexts     uint64
	avgRequestTime time.Duration

	mu sync.RWMutex
}

// ClientStats represents embedding client statistics
type ClientStats struct {
	TotalRequests  uint64        `json:"total_requests"`
	FailedRequests uint64        `json:"failed_requests"`
	TotalTexts     uint64        `json:"total_texts"`
	AvgRequestTime time.Duration `json:"avg_request_time"`
}

// NewClient creates a new embedding client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	apiConfig.BaseURL = config.Endpoint

	return &Client{
		config: config,
		api:    openai.NewClientWithConfig(apiConfig),
	}, nil
}

// Embed returns one vector per input text, in input order. Any transport or
// timeout failure is reported as ErrProviderUnavailable so callers can treat
// it as a transient condition and retry on the next trigger.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	startTime := time.Now()
	c.incrementTotalRequests(len(texts))

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.config.Model),
	}
	if c.config.Dimensions > 0 {
		req.Dimensions = c.config.Dimensions
	}

	resp, err := c.api.CreateEmbeddings(reqCtx, req)
	if err != nil {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if len(resp.Data) != len(texts) {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			ErrProviderUnavailable, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			c.incrementFailedRequests()
			return nil, fmt.Errorf("%w: embedding index %d out of range",
				ErrProviderUnavailable, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	c.updateAvgRequestTime(time.Since(startTime))

	return vectors, nil
}

// Statistics methods
func (c *Client) incrementTotalRequests(texts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalTexts += uint64(texts)
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) updateAvgRequestTime(requestTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgRequestTime == 0 {
		c.avgRequestTime = requestTime
	} else {
		c.avgRequestTime = (c.avgRequestTime + requestTime) / 2
	}
}

// GetStats returns current embedding client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ClientStats{
		TotalRequests:  c.totalRequests,
		FailedRequests: c.failedRequests,
		TotalTexts:     c.totalTexts,
		AvgRequestTime: c.avgRequestTime,
	}
}
