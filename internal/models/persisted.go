package models

import (
	"fmt"
	"time"
)

var (
	_ Model = (*PersistedTrack)(nil)
	_ Model = (*LookupEntry)(nil)
)

// PersistedTrack is a catalog entry for a media file produced by a run.
type PersistedTrack struct {
	id        string
	sequence  int
	runID     string
	sourceID  string
	title     string
	artist    string
	album     string
	ordinal   int
	total     int
	path      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedTrack builds a catalog entry from a finished pipeline result.
func NewPersistedTrack(sequence int, runID, sourceID string, t EnrichedTrack) *PersistedTrack {
	now := time.Now()
	return &PersistedTrack{
		sequence:  sequence,
		runID:     runID,
		sourceID:  sourceID,
		title:     t.Title,
		artist:    t.Artist,
		album:     t.Album,
		ordinal:   t.Ordinal,
		total:     t.Total,
		path:      t.Path,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *PersistedTrack) ID() string            { return t.id }
func (t *PersistedTrack) Sequence() int         { return t.sequence }
func (t *PersistedTrack) RunID() string         { return t.runID }
func (t *PersistedTrack) SourceID() string      { return t.sourceID }
func (t *PersistedTrack) Title() string         { return t.title }
func (t *PersistedTrack) Artist() string        { return t.artist }
func (t *PersistedTrack) Album() string         { return t.album }
func (t *PersistedTrack) Ordinal() int          { return t.ordinal }
func (t *PersistedTrack) Total() int            { return t.total }
func (t *PersistedTrack) Path() string          { return t.path }
func (t *PersistedTrack) CreatedAt() time.Time  { return t.createdAt }
func (t *PersistedTrack) UpdatedAt() time.Time  { return t.updatedAt }
func (t *PersistedTrack) DeletedAt() *time.Time { return t.deletedAt }

func (t *PersistedTrack) SetID(id string)            { t.id = id }
func (t *PersistedTrack) SetSequence(seq int)        { t.sequence = seq }
func (t *PersistedTrack) SetCreatedAt(ts time.Time)  { t.createdAt = ts }
func (t *PersistedTrack) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *PersistedTrack) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }
func (t *PersistedTrack) SetPath(path string)        { t.path = path }
func (t *PersistedTrack) SetTitle(title string)      { t.title = title }

// Validate checks required catalog fields.
func (t *PersistedTrack) Validate() error {
	if t.sourceID == "" {
		return fmt.Errorf("source_id is required")
	}
	if t.path == "" {
		return fmt.Errorf("path is required")
	}
	if t.ordinal < 1 || t.ordinal > t.total {
		return fmt.Errorf("ordinal %d outside [1, %d]", t.ordinal, t.total)
	}
	return nil
}

// LookupKind enumerates the external lookups that are cached.
type LookupKind string

const (
	LookupArtwork LookupKind = "artwork"
	LookupLyrics  LookupKind = "lyrics"
)

// LookupEntry is a cached artwork or lyrics lookup result keyed by a normalized query.
//
// An empty Value records a negative result so misses are not retried on every run.
type LookupEntry struct {
	id        string
	kind      LookupKind
	key       string
	value     string
	createdAt time.Time
	updatedAt time.Time
}

// NewLookupEntry creates an entry for the given kind and normalized key.
func NewLookupEntry(kind LookupKind, key, value string) *LookupEntry {
	now := time.Now()
	return &LookupEntry{kind: kind, key: key, value: value, createdAt: now, updatedAt: now}
}

func (e *LookupEntry) ID() string           { return e.id }
func (e *LookupEntry) Kind() LookupKind     { return e.kind }
func (e *LookupEntry) Key() string          { return e.key }
func (e *LookupEntry) Value() string        { return e.value }
func (e *LookupEntry) CreatedAt() time.Time { return e.createdAt }
func (e *LookupEntry) UpdatedAt() time.Time { return e.updatedAt }

func (e *LookupEntry) SetID(id string)           { e.id = id }
func (e *LookupEntry) SetValue(v string)         { e.value = v }
func (e *LookupEntry) SetCreatedAt(ts time.Time) { e.createdAt = ts }
func (e *LookupEntry) SetUpdatedAt(ts time.Time) { e.updatedAt = ts }

// Validate checks that the entry has a known kind and a key.
func (e *LookupEntry) Validate() error {
	switch e.kind {
	case LookupArtwork, LookupLyrics:
	default:
		return fmt.Errorf("unknown lookup kind %q", e.kind)
	}
	if e.key == "" {
		return fmt.Errorf("lookup key is required")
	}
	return nil
}
