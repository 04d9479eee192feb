// Package embedding provides the text embedding capability used by the
// semantic chunker. It defines the Provider interface, an OpenAI-compatible
// HTTP client implementation, and cosine similarity helpers over the
// resulting vectors.
package embedding
