// Package repositories implements SQLite persistence for the produced-track catalog and the lookup cache.
//
// Key Implementations:
//   - [TrackRepository] : one row per media file written by a run, soft deleted
//   - [LookupRepository] : artwork and lyrics lookups keyed by normalized query
//   - [TrackCatalogAdapter] : records finished pipeline results
//   - [LookupCacheAdapter] : read-through cache used by the lookup services
//
// Catalog rows carry a sequence number from [NextSequence] so history listings have a stable order
// independent of UUIDs and timestamps. The catalog is informational and is never used to skip or resume work.
package repositories
