// Package analysis implements the structured analyzer boundary: an LLM
// client that describes a conversation chunk as topic, decision point,
// options, context, and next steps, plus the lenient response parsing and
// deterministic fallback that keep analyzer failures from ever reaching the
// graph builder's callers.
package analysis
