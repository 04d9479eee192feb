// Package chunker implements incremental semantic chunking over the recent
// utterance window. It batches embedding requests, compares only adjacent
// pairs, and groups greedily under a configurable similarity threshold while
// tracking a consumption cursor so re-invocation on overlapping windows never
// emits duplicate membership.
package chunker
