// Package session owns mission capture and offline playback.
//
// Ownership boundary:
// - session record/log shapes and the on-disk JSONL format
// - the append-only recorder (one writer, synced per record)
// - the replay engine over a fully loaded, immutable log
package session
