package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/services"
	"github.com/desertthunder/ytmd/internal/shared"
)

// SinglesFolder receives single tracks without a usable title and references that could not be probed.
const SinglesFolder = "Singles"

// Resolver expands references into work items.
//
// It is used on the coordinating goroutine before any worker starts, so the item count it
// returns is the final total of the run.
type Resolver struct {
	source    services.MediaSource
	outputDir string
	policy    shared.Policy
	logger    *log.Logger
	now       func() time.Time
}

// NewResolver creates a resolver writing into outputDir.
func NewResolver(source services.MediaSource, outputDir string, policy shared.Policy, logger *log.Logger) *Resolver {
	return &Resolver{
		source:    source,
		outputDir: outputDir,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveAll resolves refs in order and concatenates the results. A reference that cannot be
// resolved never prevents the others from being resolved.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) ([]models.WorkItem, error) {
	var items []models.WorkItem
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return items, fmt.Errorf("%w: %w", shared.ErrInterrupted, err)
		}

		resolved, err := r.Resolve(ctx, ref)
		if err != nil {
			r.logger.Error("skipping reference", "ref", ref, "error", err)
			continue
		}
		items = append(items, resolved...)
	}
	return items, nil
}

// Resolve probes ref without downloading and returns its work items with destination
// directories created.
//
// A failed probe degrades to a single 1/1 item in [SinglesFolder]. Collection members without
// an ID are skipped and do not take an ordinal.
func (r *Resolver) Resolve(ctx context.Context, ref string) ([]models.WorkItem, error) {
	probe, err := shared.Retry(ctx, r.policy, func(ctx context.Context, attempt int) (*models.Probe, error) {
		return r.source.Probe(ctx, ref)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("probe failed, queueing as a single track", "ref", ref, "error", err)
		return r.single(ref, "", SinglesFolder)
	}

	if !probe.IsCollection {
		folder := shared.SanitizeFolderName(probe.Title)
		if folder == "" {
			folder = SinglesFolder
		}
		return r.single(ref, probe.Title, folder)
	}

	folder := shared.SanitizeFolderName(probe.Title)
	if folder == "" {
		folder = fmt.Sprintf("Playlist_%d", r.now().Unix())
	}
	dir, err := r.makeDir(folder)
	if err != nil {
		return nil, err
	}

	members := ValidMembers(probe.Entries)
	if skipped := len(probe.Entries) - len(members); skipped > 0 {
		r.logger.Warn("skipping unavailable collection members", "collection", probe.Title, "skipped", skipped)
	}

	items := make([]models.WorkItem, 0, len(members))
	for i, m := range members {
		items = append(items, models.WorkItem{
			ID:         shared.GenerateID(),
			Source:     services.MemberReference(m.ID),
			Dir:        dir,
			Ordinal:    i + 1,
			Total:      len(members),
			Hint:       m.Title,
			Collection: probe.Title,
		})
	}

	r.logger.Info("resolved collection", "title", probe.Title, "tracks", len(items), "dir", dir)
	return items, nil
}

// ValidMembers returns the entries that carry an ID, preserving order.
func ValidMembers(entries []models.ProbeEntry) []models.ProbeEntry {
	valid := make([]models.ProbeEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		valid = append(valid, e)
	}
	return valid
}

func (r *Resolver) single(ref, title, folder string) ([]models.WorkItem, error) {
	dir, err := r.makeDir(folder)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved single track", "ref", ref, "dir", dir)
	return []models.WorkItem{{
		ID:      shared.GenerateID(),
		Source:  ref,
		Dir:     dir,
		Ordinal: 1,
		Total:   1,
		Hint:    title,
	}}, nil
}

func (r *Resolver) makeDir(folder string) (string, error) {
	dir := filepath.Join(r.outputDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}
