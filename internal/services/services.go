// package services defines the external collaborators of the pipeline and their implementations
//
// yt-dlp, ffmpeg/ffprobe, ID3 tags, iTunes Search and LRCLib
package services

import (
	"context"

	"github.com/desertthunder/ytmd/internal/models"
)

// ByteProgress receives the latest transferred byte count. total is 0 until the source reports an estimate.
type ByteProgress func(downloaded, total int64)

// Download is the result of a successful acquisition.
type Download struct {
	Path     string // Temporary media file, owned by the caller
	Size     int64
	Metadata models.TrackMetadata
}

// MediaSource inspects and retrieves remote media.
type MediaSource interface {
	// Probe inspects ref without transferring media.
	Probe(ctx context.Context, ref string) (*models.Probe, error)

	// Fetch transfers the best audio stream of ref into dir, reporting byte progress.
	Fetch(ctx context.Context, ref, dir string, progress ByteProgress) (*Download, error)
}

// Transcoder converts an acquired file into the target audio format.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// DurationProber reads the duration of a local media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// TagOptions selects which tag groups are written.
type TagOptions struct {
	Meta   bool // Title, artist, album and track number
	Cover  bool
	Lyrics bool
}

// AllTags writes every tag group.
var AllTags = TagOptions{Meta: true, Cover: true, Lyrics: true}

// Tagger embeds metadata into a media file's tag container.
type Tagger interface {
	WriteTags(path string, track models.EnrichedTrack, opts TagOptions) error
}

// ArtworkQuery describes the track to find cover art for.
type ArtworkQuery struct {
	Title  string
	Artist string
	Album  string
}

// ArtworkFinder returns a cover image URL for a track, or an error wrapping shared.ErrLookupMiss.
type ArtworkFinder interface {
	FindArtwork(ctx context.Context, q ArtworkQuery) (string, error)
}

// LyricsQuery is the normalized lyrics search.
type LyricsQuery struct {
	Title    string
	Artist   string
	Album    string
	Duration int // Whole seconds, 0 when unknown
}

// LyricsFinder returns candidate lyrics for a track.
type LyricsFinder interface {
	SearchLyrics(ctx context.Context, q LyricsQuery) ([]models.LyricsCandidate, error)
}

// Downloader fetches the raw bytes behind a URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// LookupCache stores lookup results by normalized key. An empty value is a cached miss.
type LookupCache interface {
	Lookup(kind models.LookupKind, key string) (value string, ok bool, err error)
	Store(kind models.LookupKind, key, value string) error
}
