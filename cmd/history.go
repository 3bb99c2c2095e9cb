package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytmd/internal/formatter"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/repositories"
	"github.com/desertthunder/ytmd/internal/shared"
	"github.com/urfave/cli/v3"
)

type historyEntry struct {
	Sequence int       `json:"sequence"`
	RunID    string    `json:"run_id"`
	SourceID string    `json:"source_id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	Album    string    `json:"album"`
	Ordinal  int       `json:"ordinal"`
	Total    int       `json:"total"`
	Path     string    `json:"path"`
	Added    time.Time `json:"added"`
}

func newHistoryEntry(t *models.PersistedTrack) historyEntry {
	return historyEntry{
		Sequence: t.Sequence(),
		RunID:    t.RunID(),
		SourceID: t.SourceID(),
		Title:    t.Title(),
		Artist:   t.Artist(),
		Album:    t.Album(),
		Ordinal:  t.Ordinal(),
		Total:    t.Total(),
		Path:     t.Path(),
		Added:    t.CreatedAt(),
	}
}

// History lists the most recently cataloged tracks.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit < 1 {
		return fmt.Errorf("%w: --limit must be at least 1", shared.ErrInvalidFlag)
	}

	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	tracks, err := repositories.NewTrackRepository(db).Recent(limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(tracks))
		for _, t := range tracks {
			entries = append(entries, newHistoryEntry(t))
		}
		return r.writeJSON(entries, true)
	}

	if len(tracks) == 0 {
		r.writePlain("No tracks recorded yet.\n")
		return nil
	}
	r.writePlainln("%s", formatter.HistoryTable(tracks, time.Now()))
	return nil
}
