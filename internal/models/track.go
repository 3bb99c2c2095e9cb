package models

import (
	"sort"
	"strings"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Thumbnail is one image variant reported by the media source.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrackMetadata is the typed view of the metadata reported by the media source.
//
// Optional fields are left empty when the source did not report them; the Resolved*
// accessors apply the defaulting rules.
type TrackMetadata struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Artist     string      `json:"artist"`
	Uploader   string      `json:"uploader"`
	Album      string      `json:"album"`
	Thumbnail  string      `json:"thumbnail"`
	Thumbnails []Thumbnail `json:"thumbnails"`
	Duration   float64     `json:"duration"` // Seconds, 0 when unknown
}

// ResolvedTitle returns the title or [UnknownTitle].
func (m TrackMetadata) ResolvedTitle() string {
	if t := strings.TrimSpace(m.Title); t != "" {
		return t
	}
	return UnknownTitle
}

// ResolvedArtist returns artist ?? uploader ?? [UnknownArtist].
func (m TrackMetadata) ResolvedArtist() string {
	if a := strings.TrimSpace(m.Artist); a != "" {
		return a
	}
	if u := strings.TrimSpace(m.Uploader); u != "" {
		return u
	}
	return UnknownArtist
}

// ResolvedAlbum returns the album or [UnknownAlbum].
func (m TrackMetadata) ResolvedAlbum() string {
	if a := strings.TrimSpace(m.Album); a != "" {
		return a
	}
	return UnknownAlbum
}

// HasAlbum reports whether the source supplied a real album name.
func (m TrackMetadata) HasAlbum() bool {
	return strings.TrimSpace(m.Album) != ""
}

// BestThumbnail returns the explicit thumbnail URL, else the tallest listed thumbnail.
func (m TrackMetadata) BestThumbnail() string {
	if m.Thumbnail != "" {
		return m.Thumbnail
	}
	if len(m.Thumbnails) == 0 {
		return ""
	}
	thumbs := make([]Thumbnail, len(m.Thumbnails))
	copy(thumbs, m.Thumbnails)
	sort.SliceStable(thumbs, func(i, j int) bool { return thumbs[i].Height > thumbs[j].Height })
	return thumbs[0].URL
}

// DurationSeconds returns the duration truncated to whole seconds.
func (m TrackMetadata) DurationSeconds() int {
	if m.Duration <= 0 {
		return 0
	}
	return int(m.Duration)
}

// LyricsCandidate is one result returned by a lyrics lookup.
type LyricsCandidate struct {
	TrackName    string
	ArtistName   string
	AlbumName    string
	Duration     float64
	PlainLyrics  string
	SyncedLyrics string
}

// HasSynced reports whether the candidate carries timestamped lines.
func (c LyricsCandidate) HasSynced() bool {
	return strings.TrimSpace(c.SyncedLyrics) != ""
}

// HasPlain reports whether the candidate carries plain text.
func (c LyricsCandidate) HasPlain() bool {
	return strings.TrimSpace(c.PlainLyrics) != ""
}

// EnrichedTrack is the result of one pipeline run. It is owned by the worker that produced
// it and never shared.
type EnrichedTrack struct {
	Path         string // Final media file
	Size         int64  // Bytes on disk after tagging
	Title        string
	Artist       string // Primary artist
	Album        string
	Ordinal      int
	Total        int
	Duration     int // Whole seconds
	PlainLyrics  string
	SyncedLyrics string
	LyricsPath   string // Sidecar file, empty when no synced lyrics were written
	Cover        []byte
	CoverMIME    string
}
