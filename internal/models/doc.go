// Package models defines the entities that flow through the ytmd acquisition pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values: short-lived structs passed between the resolver, the queue and the workers
//   - [WorkItem] : one track to produce, immutable once queued
//   - [Probe] : result of inspecting a reference without downloading it
//   - [TrackMetadata] : typed source metadata with explicit defaulting rules
//   - [EnrichedTrack] : worker-local result of a single pipeline run
//   - [LyricsCandidate] : one lyrics lookup result
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedTrack] : catalog entry for a produced media file
//   - [LookupEntry] : cached artwork/lyrics lookup result
//
// All persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
