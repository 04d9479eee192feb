package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:                  8080,
			Address:               "0.0.0.0",
			MaxConcurrentSessions: 100,
		},
		Chunking: ChunkingConfig{
			WindowSize:          10,
			SimilarityThreshold: 0.7,
			MinChunkSize:        2,
		},
		Embedding: EmbeddingConfig{
			Endpoint:   "http://localhost:11434/v1",
			APIKey:     "test-key",
			Model:      "nomic-embed-text",
			Timeout:    10,
			Dimensions: 768,
		},
		Analyzer: AnalyzerConfig{
			Endpoint:      "http://localhost:11434/v1",
			APIKey:        "test-key",
			Model:         "llama3.2",
			Timeout:       30,
			MaxRetries:    3,
			MaxConcurrent: 10,
			Temperature:   0.2,
		},
		Session: SessionConfig{
			IdleTimeout: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:     "invalid server port",
			mutate:   func(c *Config) { c.Server.Port = 70000 },
			errorMsg: "port must be between 1 and 65535",
		},
		{
			name:     "window too small",
			mutate:   func(c *Config) { c.Chunking.WindowSize = 1 },
			errorMsg: "window_size must be at least 2",
		},
		{
			name:     "threshold at zero",
			mutate:   func(c *Config) { c.Chunking.SimilarityThreshold = 0 },
			errorMsg: "similarity_threshold must be between 0 and 1",
		},
		{
			name:     "threshold at one",
			mutate:   func(c *Config) { c.Chunking.SimilarityThreshold = 1 },
			errorMsg: "similarity_threshold must be between 0 and 1",
		},
		{
			name:     "min chunk exceeds window",
			mutate:   func(c *Config) { c.Chunking.MinChunkSize = 20 },
			errorMsg: "cannot exceed window_size",
		},
		{
			name:     "missing embedding endpoint",
			mutate:   func(c *Config) { c.Embedding.Endpoint = "" },
			errorMsg: "endpoint cannot be empty",
		},
		{
			name:     "missing analyzer api key",
			mutate:   func(c *Config) { c.Analyzer.APIKey = "" },
			errorMsg: "api_key cannot be empty",
		},
		{
			name:     "analyzer temperature out of range",
			mutate:   func(c *Config) { c.Analyzer.Temperature = 3 },
			errorMsg: "temperature must be between 0 and 2",
		},
		{
			name:     "idle timeout too short",
			mutate:   func(c *Config) { c.Session.IdleTimeout = 0 },
			errorMsg: "idle_timeout must be at least 1 second",
		},
		{
			name:     "invalid log level",
			mutate:   func(c *Config) { c.Logging.Level = "trace" },
			errorMsg: "level must be one of",
		},
		{
			name:     "invalid log format",
			mutate:   func(c *Config) { c.Logging.Format = "xml" },
			errorMsg: "format must be 'json' or 'text'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("Expected error but got none")
			} else if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config file",
			configYAML: `
server:
  port: 8080
  address: "0.0.0.0"
  max_concurrent_sessions: 100
chunking:
  window_size: 10
  similarity_threshold: 0.7
  min_chunk_size: 2
embedding:
  endpoint: "http://localhost:11434/v1"
  api_key: "test-key"
  model: "nomic-embed-text"
  timeout: 10
  dimensions: 768
analyzer:
  endpoint: "http://localhost:11434/v1"
  api_key: "test-key"
  model: "llama3.2"
  timeout: 30
  max_retries: 3
  max_concurrent: 10
  temperature: 0.2
session:
  idle_timeout: 300
logging:
  level: "info"
  format: "json"
  output: "stdout"
`,
			expectError: false,
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
server:
  port: 8080
  max_concurrent_sessions: not_a_number
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "missing required fields",
			configYAML: `
server:
  port: 8080
  # missing address
`,
			expectError: true,
			errorMsg:    "address cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if config == nil {
					t.Errorf("Expected config to be loaded but got nil")
				}
			}
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	embedding := EmbeddingConfig{Timeout: 10}
	if embedding.GetTimeoutDuration() != 10*time.Second {
		t.Errorf("Expected 10 seconds, got %v", embedding.GetTimeoutDuration())
	}

	analyzer := AnalyzerConfig{Timeout: 30}
	if analyzer.GetTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", analyzer.GetTimeoutDuration())
	}

	session := SessionConfig{IdleTimeout: 300}
	if session.GetIdleTimeoutDuration() != 5*time.Minute {
		t.Errorf("Expected 5 minutes, got %v", session.GetIdleTimeoutDuration())
	}
}
