// Package session ties the pipeline together: each conversation session owns
// an utterance buffer, a semantic chunker, and a decision graph, and runs
// the ingest pipeline (append, chunk, analyze, grow graph) under one mutex.
// The Manager tracks active sessions and removes idle ones.
package session
