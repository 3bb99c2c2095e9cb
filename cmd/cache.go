package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/repositories"
	"github.com/desertthunder/ytmd/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// openDatabase loads --config and opens its database, applying pending migrations.
func (r *Runner) openDatabase(cmd *cli.Command) (*sql.DB, error) {
	if err := r.loadConfig(cmd); err != nil {
		return nil, err
	}
	return shared.OpenDatabase(r.config.Database)
}

// CacheStats prints the number of cached lookups per kind.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := repositories.NewLookupRepository(db).Count()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Kind", "Entries"})

	total := 0
	for _, kind := range []models.LookupKind{models.LookupArtwork, models.LookupLyrics} {
		t.AppendRow(table.Row{string(kind), humanize.Comma(int64(counts[kind]))})
		total += counts[kind]
	}
	t.AppendFooter(table.Row{"Total", humanize.Comma(int64(total))})

	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlainln("%s", t.Render())
	return nil
}

// CacheClear removes cached lookups, optionally limited to --kind.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	kind := models.LookupKind(cmd.String("kind"))
	switch kind {
	case "", models.LookupArtwork, models.LookupLyrics:
	default:
		return fmt.Errorf("%w: --kind must be %q or %q, got %q", shared.ErrInvalidFlag, models.LookupArtwork, models.LookupLyrics, kind)
	}

	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := repositories.NewLookupRepository(db).Clear(kind)
	if err != nil {
		return err
	}

	label := "all"
	if kind != "" {
		label = string(kind)
	}
	r.logger.Info("cleared lookup cache", "kind", label, "removed", removed)
	r.writePlain("✓ Removed %s cached %s lookups\n", humanize.Comma(removed), label)
	return nil
}
