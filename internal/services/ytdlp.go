// yt-dlp media source
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const (
	// YouTubeWatchURL is the member reference template for collection entries.
	YouTubeWatchURL = "https://www.youtube.com/watch?v=%s"

	AudioSelector    = "bestaudio/best"
	OutputTemplate   = "%(id)s.%(ext)s"
	InfoJSONSuffix   = ".info.json"
	ProgressInterval = 250 * time.Millisecond
)

// skippedSuffixes are sidecar and in-flight files left in the download directory.
var skippedSuffixes = []string{InfoJSONSuffix, ".part", ".ytdl", ".temp", ".tmp"}

// YtDlpService implements [MediaSource] on top of the yt-dlp binary.
type YtDlpService struct {
	executable string
	minSize    int64
}

// NewYtDlpService creates a media source. An empty executable is resolved through PATH.
func NewYtDlpService(executable string, minSize int64) *YtDlpService {
	if minSize <= 0 {
		minSize = shared.MinViableSize
	}
	return &YtDlpService{executable: executable, minSize: minSize}
}

func (y *YtDlpService) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}
	return cmd
}

// Probe runs a flat, download-free extraction of ref.
func (y *YtDlpService) Probe(ctx context.Context, ref string) (*models.Probe, error) {
	result, err := y.command().
		FlatPlaylist().
		SkipDownload().
		DumpSingleJSON().
		NoWarnings().
		Run(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrProbeFailed, ref, err)
	}

	probe, err := ParseProbe([]byte(result.Stdout))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrProbeFailed, ref, err)
	}
	return probe, nil
}

// Fetch downloads the best audio stream of ref into dir along with its info JSON.
//
// dir must be private to the caller: the media file is located by scanning it.
func (y *YtDlpService) Fetch(ctx context.Context, ref, dir string, progress ByteProgress) (*Download, error) {
	cmd := y.command().
		Format(AudioSelector).
		NoPlaylist().
		ForceOverwrites().
		WriteInfoJSON().
		NoWarnings().
		Output(filepath.Join(dir, OutputTemplate))

	if progress != nil {
		cmd.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
			progress(int64(update.DownloadedBytes), int64(update.TotalBytes))
		})
	}

	if _, err := cmd.Run(ctx, ref); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInterrupted, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrAcquireFailed, ref, err)
	}

	path, size, err := LocateDownload(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrAcquireFailed, ref, err)
	}
	if size < y.minSize {
		return nil, fmt.Errorf("%w: %w: %s is %d bytes", shared.ErrAcquireFailed, shared.ErrUndersized, filepath.Base(path), size)
	}

	meta, _ := ReadInfoJSON(dir)
	return &Download{Path: path, Size: size, Metadata: meta}, nil
}

type probeJSON struct {
	Type    string       `json:"_type"`
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Entries []*entryJSON `json:"entries"`
}

type entryJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ParseProbe decodes the single JSON document printed by a flat extraction.
//
// Unavailable collection members are reported by yt-dlp as null entries; they are kept as
// entries with an empty ID so the caller decides how to skip them.
func ParseProbe(data []byte) (*models.Probe, error) {
	var raw probeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode probe output: %w", err)
	}

	probe := &models.Probe{
		Title:        strings.TrimSpace(raw.Title),
		IsCollection: raw.Type == "playlist" || len(raw.Entries) > 0,
	}

	for _, e := range raw.Entries {
		if e == nil {
			probe.Entries = append(probe.Entries, models.ProbeEntry{})
			continue
		}
		probe.Entries = append(probe.Entries, models.ProbeEntry{ID: e.ID, Title: e.Title, URL: e.URL})
	}
	return probe, nil
}

// LocateDownload returns the largest finished media file in dir.
func LocateDownload(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read download dir: %w", err)
	}

	type candidate struct {
		path string
		size int64
	}
	var found []candidate

	for _, entry := range entries {
		if entry.IsDir() || hasSkippedSuffix(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{path: filepath.Join(dir, entry.Name()), size: info.Size()})
	}

	if len(found) == 0 {
		return "", 0, fmt.Errorf("no media file produced")
	}

	sort.Slice(found, func(i, j int) bool { return found[i].size > found[j].size })
	return found[0].path, found[0].size, nil
}

// ReadInfoJSON decodes the first info JSON sidecar in dir.
func ReadInfoJSON(dir string) (models.TrackMetadata, error) {
	var meta models.TrackMetadata

	matches, err := filepath.Glob(filepath.Join(dir, "*"+InfoJSONSuffix))
	if err != nil || len(matches) == 0 {
		return meta, fmt.Errorf("no info json in %s", dir)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return meta, fmt.Errorf("failed to read info json: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to decode info json: %w", err)
	}
	return meta, nil
}

// MemberReference builds the watch URL for a collection member ID.
func MemberReference(id string) string {
	return fmt.Sprintf(YouTubeWatchURL, id)
}

func hasSkippedSuffix(name string) bool {
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
