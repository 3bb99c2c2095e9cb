package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/desertthunder/ytmd/internal/formatter"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/repositories"
	"github.com/desertthunder/ytmd/internal/services"
	"github.com/desertthunder/ytmd/internal/shared"
	"github.com/desertthunder/ytmd/internal/tasks"
	"github.com/urfave/cli/v3"
)

// downloadSettings are the effective options of one download run after flags are applied.
type downloadSettings struct {
	refs      []string
	outputDir string
	workers   int
	tags      services.TagOptions
	useCache  bool
	plain     bool
	open      bool
	logFile   string
}

// Download resolves the references, runs the worker pool and prints the run summary.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	r.logger.SetLevel(shared.LevelFromFlags(cmd.Bool("verbose"), cmd.Bool("quiet")))

	settings, err := r.downloadSettings(cmd)
	if err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	if settings.logFile != "" {
		fileLogger, closer, err := shared.NewFileLogger(settings.logFile)
		if err != nil {
			return err
		}
		defer closer.Close()
		fileLogger.SetLevel(r.logger.GetLevel())
		r.logger = fileLogger
	}

	r.printBanner(settings)

	if missing := shared.MissingRequired(shared.CheckBinaries(shared.ToolRequirements(r.config.Tools))); len(missing) > 0 {
		r.logger.Warn("required tools not found, run 'ytmd doctor'", "missing", missing)
	}

	lock, err := shared.LockDir(settings.outputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var db *sql.DB
	if settings.useCache {
		if db, err = shared.OpenDatabase(r.config.Database); err != nil {
			r.logger.Warn("database unavailable, continuing without cache and catalog", "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	policy := shared.PolicyFromConfig(r.config.Download)
	source := services.NewYtDlpService(r.config.Tools.YtDlp, r.config.Download.MinViableSize)

	resolver := tasks.NewResolver(source, settings.outputDir, policy, r.logger)
	items, err := resolver.ResolveAll(ctx, settings.refs)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		r.logger.Warn("nothing to download")
		return nil
	}

	queue := tasks.NewTaskQueue()
	for _, item := range items {
		queue.Put(item)
	}

	workers := min(settings.workers, len(items))
	agg := tasks.NewAggregator(workers, len(items))
	pipeline := tasks.NewPipeline(r.pipelineDeps(source, db), tasks.Options{
		Format:        r.config.Download.AudioFormat,
		TempDir:       r.config.Download.TempDir,
		MinViableSize: r.config.Download.MinViableSize,
		Tags:          settings.tags,
		CoverPolicy:   policy,
	})

	pool := tasks.NewPool(pipeline, queue, agg, r.logger, tasks.PoolOptions{
		Workers: workers,
		Policy:  policy,
		RunID:   shared.GenerateID(),
	})
	if db != nil {
		pool.SetRecorder(repositories.NewTrackCatalogAdapter(repositories.NewTrackRepository(db)))
	}

	r.logger.Info("starting", "items", len(items), "workers", workers)

	var report *models.RunReport
	if settings.plain || !isTerminal(os.Stdout) {
		report = r.runPlain(ctx, pool, agg)
	} else if report, err = r.runWithDisplay(ctx, cancel, pool, agg, runTitle(len(settings.refs), len(items)), settings.logFile == ""); err != nil {
		r.logger.Error("progress display failed", "error", err)
	}

	r.writePlainln("%s", formatter.SummaryTable(report))

	if path, err := formatter.WriteRunManifest(report, settings.outputDir); err != nil {
		r.logger.Warn("could not write run manifest", "error", err)
	} else {
		r.logger.Debug("wrote run manifest", "path", path)
	}

	if settings.open {
		if err := shared.OpenPath(settings.outputDir); err != nil {
			r.logger.Warn("could not open output directory", "error", err)
		}
	}

	if report.Interrupted() {
		return fmt.Errorf("%w: %s", shared.ErrInterrupted, formatter.SummaryLine(report))
	}
	return nil
}

// downloadSettings merges the config with the command's flags and arguments.
func (r *Runner) downloadSettings(cmd *cli.Command) (downloadSettings, error) {
	refs := cmd.Args().Slice()
	if path := cmd.String("batch-file"); path != "" {
		batch, err := readBatchFile(path)
		if err != nil {
			return downloadSettings{}, err
		}
		refs = append(refs, batch...)
	}
	if len(refs) == 0 {
		return downloadSettings{}, fmt.Errorf("%w: at least one URL or --batch-file is required", shared.ErrMissingArgument)
	}

	if out := cmd.String("output"); out != "" {
		r.config.Download.OutputDir = out
	}
	if cmd.IsSet("workers") {
		w := int(cmd.Int("workers"))
		if w < 1 {
			return downloadSettings{}, fmt.Errorf("%w: --workers must be at least 1", shared.ErrInvalidFlag)
		}
		r.config.Download.Workers = w
	}

	outputDir, err := filepath.Abs(r.config.Download.OutputDir)
	if err != nil {
		return downloadSettings{}, fmt.Errorf("%w: output directory: %w", shared.ErrInvalidArgument, err)
	}

	meta := r.config.Metadata
	return downloadSettings{
		refs:      refs,
		outputDir: outputDir,
		workers:   r.config.Download.Workers,
		tags: services.TagOptions{
			Meta:   meta.EmbedTags && !cmd.Bool("no-meta"),
			Cover:  meta.EmbedCover && !cmd.Bool("no-cover"),
			Lyrics: meta.FetchLyrics && !cmd.Bool("no-lyrics"),
		},
		useCache: !cmd.Bool("no-cache"),
		plain:    cmd.Bool("plain"),
		open:     cmd.Bool("open"),
		logFile:  cmd.String("log-file"),
	}, nil
}

// pipelineDeps wires the external collaborators. db may be nil.
func (r *Runner) pipelineDeps(source *services.YtDlpService, db *sql.DB) tasks.Deps {
	meta := r.config.Metadata
	ffmpeg := services.NewFFmpegService(r.config.Tools.FFmpeg, r.config.Tools.FFprobe, r.config.Download.AudioBitrate, r.config.Download.MinViableSize)

	var cache services.LookupCache
	if db != nil {
		cache = repositories.NewLookupCacheAdapter(repositories.NewLookupRepository(db), repositories.DefaultMissTTL)
	}

	client := r.httpClient
	if client == nil {
		client = &http.Client{Timeout: meta.Timeout()}
	}
	opts := []services.APIOption{services.WithRateLimit(meta.RequestsPerSecond), services.WithUserAgent(meta.UserAgent)}

	return tasks.Deps{
		Source:     source,
		Transcoder: ffmpeg,
		Tagger:     services.NewID3Tagger(),
		Prober:     ffmpeg,
		Artwork:    services.NewArtworkService(services.NewAPIService(meta.ArtworkURL, client, opts...), cache),
		Lyrics:     services.NewLyricsService(services.NewAPIService(meta.LyricsURL, client, opts...), cache),
		Downloader: services.NewAPIService("", client, services.WithUserAgent(meta.UserAgent)),
	}
}

// runTitle is the heading of the progress display.
func runTitle(sources, tracks int) string {
	noun := "track"
	if tracks != 1 {
		noun = "tracks"
	}
	from := "source"
	if sources != 1 {
		from = "sources"
	}
	return fmt.Sprintf("ytmd: %d %s from %d %s", tracks, noun, sources, from)
}

func (r *Runner) printBanner(s downloadSettings) {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	r.writePlainHeader("ytmd")
	r.writePlain("Output:   %s\n", s.outputDir)
	r.writePlain("Workers:  %d\n", s.workers)
	r.writePlain("Sources:  %d\n", len(s.refs))
	r.writePlain("Tags:     %s   Cover: %s   Lyrics: %s\n", onOff(s.tags.Meta), onOff(s.tags.Cover), onOff(s.tags.Lyrics))
	r.writePlain("Attempts: %d\n\n", max(r.config.Download.Attempts, 1))
}

// readBatchFile returns the references in path, one per line. Blank lines and lines starting
// with # are skipped.
func readBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: batch file: %w", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return refs, nil
}
