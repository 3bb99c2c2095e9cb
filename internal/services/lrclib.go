// LRCLib lyrics lookup
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

const DefaultLyricsURL = "https://lrclib.net"

// lrclibTrack is one element of the /api/search response.
type lrclibTrack struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// LyricsService implements [LyricsFinder] against the LRCLib search endpoint.
type LyricsService struct {
	api   *APIService
	cache LookupCache
}

// NewLyricsService creates a lyrics lookup. cache may be nil.
func NewLyricsService(api *APIService, cache LookupCache) *LyricsService {
	return &LyricsService{api: api, cache: cache}
}

// SearchLyrics queries /api/search with the track, artist and album names plus the duration.
//
// An empty result is not an error. Results are cached by the normalized query.
func (l *LyricsService) SearchLyrics(ctx context.Context, q LyricsQuery) ([]models.LyricsCandidate, error) {
	key := lyricsCacheKey(q)
	if l.cache != nil {
		if value, ok, err := l.cache.Lookup(models.LookupLyrics, key); err == nil && ok {
			return decodeCachedLyrics(value), nil
		}
	}

	params := url.Values{}
	params.Set("track_name", q.Title)
	params.Set("artist_name", q.Artist)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	if q.Duration > 0 {
		params.Set("duration", strconv.Itoa(q.Duration))
	}

	var tracks []lrclibTrack
	if err := l.api.GetJSON(ctx, "/api/search", params, &tracks); err != nil {
		return nil, fmt.Errorf("lyrics search: %w", err)
	}

	candidates := make([]models.LyricsCandidate, 0, len(tracks))
	for _, t := range tracks {
		if t.Instrumental {
			continue
		}
		candidates = append(candidates, models.LyricsCandidate{
			TrackName:    t.TrackName,
			ArtistName:   t.ArtistName,
			AlbumName:    t.AlbumName,
			Duration:     t.Duration,
			PlainLyrics:  t.PlainLyrics,
			SyncedLyrics: t.SyncedLyrics,
		})
	}

	if l.cache != nil {
		_ = l.cache.Store(models.LookupLyrics, key, encodeCachedLyrics(candidates))
	}
	return candidates, nil
}

func lyricsCacheKey(q LyricsQuery) string {
	return shared.NormalizeTrackKey(q.Title, q.Artist) + "|" + shared.FoldText(q.Album) + "|" + strconv.Itoa(q.Duration)
}

// encodeCachedLyrics keeps at most the best synced and the best plain candidate.
func encodeCachedLyrics(candidates []models.LyricsCandidate) string {
	var keep []models.LyricsCandidate
	if c, ok := firstMatching(candidates, models.LyricsCandidate.HasSynced); ok {
		keep = append(keep, c)
	}
	if c, ok := firstMatching(candidates, models.LyricsCandidate.HasPlain); ok && (len(keep) == 0 || keep[0] != c) {
		keep = append(keep, c)
	}
	if len(keep) == 0 {
		return ""
	}
	data, err := json.Marshal(keep)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeCachedLyrics(value string) []models.LyricsCandidate {
	if value == "" {
		return nil
	}
	var candidates []models.LyricsCandidate
	if err := json.Unmarshal([]byte(value), &candidates); err != nil {
		return nil
	}
	return candidates
}

func firstMatching(candidates []models.LyricsCandidate, pred func(models.LyricsCandidate) bool) (models.LyricsCandidate, bool) {
	for _, c := range candidates {
		if pred(c) {
			return c, true
		}
	}
	return models.LyricsCandidate{}, false
}
