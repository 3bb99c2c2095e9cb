package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/services"
	"github.com/desertthunder/ytmd/internal/shared"
)

// lrcTimestamp matches the leading [mm:ss.xx] tags of a synced lyrics line.
var lrcTimestamp = regexp.MustCompile(`^(?:\[\d+:\d+(?:[.:]\d+)?\]\s*)+`)

// Deps are the collaborators of a [Pipeline]. Source, Transcoder and Tagger are required;
// the lookups and the prober are optional.
type Deps struct {
	Source     services.MediaSource
	Transcoder services.Transcoder
	Tagger     services.Tagger
	Prober     services.DurationProber
	Artwork    services.ArtworkFinder
	Lyrics     services.LyricsFinder
	Downloader services.Downloader
}

// Options control what a [Pipeline] produces.
type Options struct {
	Format        string // Output extension, "mp3"
	TempDir       string // Parent of per-attempt scratch directories, os.TempDir when empty
	MinViableSize int64
	Tags          services.TagOptions
	CoverPolicy   shared.Policy // Retry policy for cover image downloads
}

// DefaultOptions returns MP3 output with every tag group enabled.
func DefaultOptions() Options {
	return Options{
		Format:        services.AudioContainer,
		MinViableSize: shared.MinViableSize,
		Tags:          services.AllTags,
		CoverPolicy:   shared.DefaultPolicy(),
	}
}

// Pipeline runs one attempt of acquire, transcode, enrich and finalize for a work item.
type Pipeline struct {
	deps Deps
	opts Options
}

// NewPipeline creates a pipeline. Zero option fields fall back to [DefaultOptions].
func NewPipeline(deps Deps, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.MinViableSize <= 0 {
		opts.MinViableSize = def.MinViableSize
	}
	if opts.CoverPolicy.Attempts <= 0 {
		opts.CoverPolicy = def.CoverPolicy
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Process runs a single attempt for item.
//
// The attempt fails only when acquisition or transcoding fails. Enrichment and tag errors are
// logged and dropped; the returned track then carries whatever enrichment succeeded.
func (p *Pipeline) Process(ctx context.Context, item models.WorkItem, attempt int, logger *log.Logger, report func(SlotUpdate)) (*models.EnrichedTrack, error) {
	if report == nil {
		report = func(SlotUpdate) {}
	}

	scratch, err := os.MkdirTemp(p.opts.TempDir, "ytmd-*")
	if err != nil {
		return nil, stageError(Acquire, fmt.Errorf("%w: scratch dir: %w", shared.ErrAcquireFailed, err))
	}
	defer os.RemoveAll(scratch)

	report(acquireUpdate(item, attempt))
	dl, err := p.acquire(ctx, item, scratch, report)
	if err != nil {
		return nil, stageError(Acquire, err)
	}
	logger.Debug("acquired", "bytes", dl.Size, "path", dl.Path)

	meta := dl.Metadata
	rawTitle := meta.ResolvedTitle()
	if meta.Title == "" && item.Hint != "" {
		rawTitle = item.Hint
	}
	dst := filepath.Join(item.Dir, shared.TrackFileName(item.Ordinal, item.Total, rawTitle, p.opts.Format))

	report(transcodeUpdate(item))
	if err := p.transcode(ctx, dl.Path, dst); err != nil {
		return nil, stageError(Transcode, err)
	}
	if err := os.Remove(dl.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("could not remove intermediate file", "path", dl.Path, "error", err)
	}

	track := p.enrich(ctx, item, meta, rawTitle, dst, logger)
	report(enrichUpdate(item, track.Title))
	p.finalize(dst, track, logger)
	if info, err := os.Stat(dst); err == nil {
		track.Size = info.Size()
	}

	return track, nil
}

func (p *Pipeline) acquire(ctx context.Context, item models.WorkItem, scratch string, report func(SlotUpdate)) (*services.Download, error) {
	tracker := newByteTracker(report)
	dl, err := p.deps.Source.Fetch(ctx, item.Source, scratch, tracker.update)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, shared.ErrInterrupted) {
			return nil, fmt.Errorf("%w: %w", shared.ErrInterrupted, err)
		}
		return nil, err
	}
	if dl == nil || dl.Path == "" {
		return nil, fmt.Errorf("%w: no file produced", shared.ErrAcquireFailed)
	}

	info, err := os.Stat(dl.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAcquireFailed, err)
	}
	if info.Size() < p.opts.MinViableSize {
		return nil, fmt.Errorf("%w: %w: %d bytes", shared.ErrAcquireFailed, shared.ErrUndersized, info.Size())
	}
	dl.Size = info.Size()
	return dl, nil
}

func (p *Pipeline) transcode(ctx context.Context, src, dst string) error {
	if err := p.deps.Transcoder.Transcode(ctx, src, dst); err != nil {
		if ctx.Err() != nil && !errors.Is(err, shared.ErrInterrupted) {
			return fmt.Errorf("%w: %w", shared.ErrInterrupted, err)
		}
		return err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("%w: output missing: %w", shared.ErrTranscodeFailed, err)
	}
	if info.Size() < p.opts.MinViableSize {
		os.Remove(dst)
		return fmt.Errorf("%w: %w: %d bytes", shared.ErrTranscodeFailed, shared.ErrUndersized, info.Size())
	}
	return nil
}

// enrich derives tag values and runs the best-effort lookups. It never fails.
func (p *Pipeline) enrich(ctx context.Context, item models.WorkItem, meta models.TrackMetadata, rawTitle, dst string, logger *log.Logger) *models.EnrichedTrack {
	artist := shared.PrimaryArtist(meta.ResolvedArtist())
	title := shared.CleanTitle(rawTitle, meta.ResolvedArtist())
	if title == "" {
		title = rawTitle
	}

	track := &models.EnrichedTrack{
		Path:     dst,
		Title:    title,
		Artist:   artist,
		Album:    meta.ResolvedAlbum(),
		Ordinal:  item.Ordinal,
		Total:    item.Total,
		Duration: meta.DurationSeconds(),
	}

	if track.Duration == 0 && p.deps.Prober != nil {
		if secs, err := p.deps.Prober.Duration(ctx, dst); err == nil {
			track.Duration = int(secs)
		} else {
			logger.Debug("duration unavailable", "error", err)
		}
	}

	if p.opts.Tags.Cover {
		p.enrichCover(ctx, track, meta, logger)
	}
	if p.opts.Tags.Lyrics {
		p.enrichLyrics(ctx, track, meta, logger)
	}
	return track
}

func (p *Pipeline) enrichCover(ctx context.Context, track *models.EnrichedTrack, meta models.TrackMetadata, logger *log.Logger) {
	var coverURL string
	if p.deps.Artwork != nil {
		q := services.ArtworkQuery{Title: track.Title, Artist: track.Artist}
		if meta.HasAlbum() {
			q.Album = meta.Album
		}
		found, err := p.deps.Artwork.FindArtwork(ctx, q)
		if err != nil {
			logger.Debug("artwork lookup missed, using thumbnail", "error", err)
		}
		coverURL = found
	}
	if coverURL == "" {
		coverURL = meta.BestThumbnail()
	}
	if coverURL == "" || p.deps.Downloader == nil {
		logger.Debug("no cover art")
		return
	}

	data, err := shared.Retry(ctx, p.opts.CoverPolicy, func(ctx context.Context, attempt int) ([]byte, error) {
		body, _, err := p.deps.Downloader.Download(ctx, coverURL)
		return body, err
	})
	if err != nil {
		logger.Warn("cover art skipped", "url", coverURL, "error", fmt.Errorf("%w: %w", shared.ErrEnrichFailed, err))
		return
	}

	track.Cover = data
	track.CoverMIME = CoverMIME(coverURL)
}

func (p *Pipeline) enrichLyrics(ctx context.Context, track *models.EnrichedTrack, meta models.TrackMetadata, logger *log.Logger) {
	if p.deps.Lyrics == nil {
		return
	}

	q := services.LyricsQuery{Title: lookupField(track.Title), Artist: lookupField(track.Artist), Duration: track.Duration}
	if meta.HasAlbum() {
		q.Album = lookupField(meta.Album)
	}
	candidates, err := p.deps.Lyrics.SearchLyrics(ctx, q)
	if err != nil {
		logger.Warn("lyrics lookup failed", "error", fmt.Errorf("%w: %w", shared.ErrEnrichFailed, err))
		return
	}

	synced, plain := SelectLyrics(candidates)
	track.PlainLyrics = plain
	if synced == "" {
		logger.Debug("no synced lyrics found", "plain", plain != "")
		return
	}

	lrc := shared.SidecarPath(track.Path, "lrc")
	if err := os.WriteFile(lrc, []byte(synced), 0o644); err != nil {
		logger.Warn("could not write lyrics sidecar", "path", lrc, "error", err)
		return
	}
	track.SyncedLyrics = synced
	track.LyricsPath = lrc
	logger.Debug("saved synced lyrics", "path", filepath.Base(lrc))
}

// lookupField drops upload noise from one lyrics query field. A field made only of stopwords is
// kept as is.
func lookupField(s string) string {
	if cleaned := shared.StripStopwords(s); cleaned != "" {
		return cleaned
	}
	return s
}

// finalize writes tags. Failures are logged and never revoke the attempt.
func (p *Pipeline) finalize(dst string, track *models.EnrichedTrack, logger *log.Logger) {
	opts := p.opts.Tags
	if !opts.Meta && !opts.Cover && !opts.Lyrics {
		return
	}
	if err := p.deps.Tagger.WriteTags(dst, *track, opts); err != nil {
		logger.Warn("tag write failed", "path", dst, "error", err)
	}
}

// SelectLyrics picks the synced text of the first candidate that has one, and plain text from
// the same candidate or the first candidate with plain text. When only synced text exists the
// plain text is derived from it.
func SelectLyrics(candidates []models.LyricsCandidate) (synced, plain string) {
	for _, c := range candidates {
		if c.HasSynced() {
			synced = c.SyncedLyrics
			if c.HasPlain() {
				plain = c.PlainLyrics
			}
			break
		}
	}
	if plain == "" {
		for _, c := range candidates {
			if c.HasPlain() {
				plain = c.PlainLyrics
				break
			}
		}
	}
	if plain == "" && synced != "" {
		plain = StripTimestamps(synced)
	}
	return synced, plain
}

// StripTimestamps removes LRC line timestamps.
func StripTimestamps(synced string) string {
	lines := strings.Split(synced, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, lrcTimestamp.ReplaceAllString(strings.TrimRight(line, "\r"), ""))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// CoverMIME guesses the image type from the URL.
func CoverMIME(url string) string {
	if strings.HasSuffix(strings.ToLower(url), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
