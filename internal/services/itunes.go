// iTunes Search API cover art lookup
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

const (
	DefaultArtworkURL = "https://itunes.apple.com"
	artworkSize       = "600x600bb"
)

type itunesResult struct {
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

type itunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

// ArtworkService implements [ArtworkFinder] with the iTunes Search API.
type ArtworkService struct {
	api   *APIService
	cache LookupCache
}

// NewArtworkService creates a cover art lookup. cache may be nil.
func NewArtworkService(api *APIService, cache LookupCache) *ArtworkService {
	return &ArtworkService{api: api, cache: cache}
}

// FindArtwork searches for the track with a normalized, stopword-filtered term and returns
// a 600px artwork URL. Results whose artist matches are preferred over the first result.
func (s *ArtworkService) FindArtwork(ctx context.Context, q ArtworkQuery) (string, error) {
	term := shared.CleanSearchQuery(q.Title, q.Artist, q.Album)
	if term == "" {
		return "", fmt.Errorf("empty artwork query: %w", shared.ErrLookupMiss)
	}

	if s.cache != nil {
		if value, ok, err := s.cache.Lookup(models.LookupArtwork, term); err == nil && ok {
			if value == "" {
				return "", fmt.Errorf("cached %q: %w", term, shared.ErrLookupMiss)
			}
			return value, nil
		}
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", "5")

	var resp itunesResponse
	if err := s.api.GetJSON(ctx, "/search", params, &resp); err != nil {
		return "", fmt.Errorf("artwork search: %w", err)
	}

	artwork := pickArtwork(resp.Results, q.Artist)
	if s.cache != nil {
		_ = s.cache.Store(models.LookupArtwork, term, artwork)
	}
	if artwork == "" {
		return "", fmt.Errorf("no artwork for %q: %w", term, shared.ErrLookupMiss)
	}
	return artwork, nil
}

func pickArtwork(results []itunesResult, artist string) string {
	want := shared.FoldText(shared.PrimaryArtist(artist))
	var fallback string
	for _, r := range results {
		if r.ArtworkURL100 == "" {
			continue
		}
		art := strings.Replace(r.ArtworkURL100, "100x100bb", artworkSize, 1)
		if want != "" && shared.FoldText(shared.PrimaryArtist(r.ArtistName)) == want {
			return art
		}
		if fallback == "" {
			fallback = art
		}
	}
	return fallback
}
