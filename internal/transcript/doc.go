// Package transcript provides the append-only utterance buffer that holds
// timestamped speech-to-text segments pushed by the transcription producer.
// Utterance ids are assigned monotonically and entries are immutable once
// stored, so chunks can reference them without ownership concerns.
package transcript
