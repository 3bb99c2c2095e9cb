package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytmd/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// Doctor checks that the configured external binaries resolve.
func (r *Runner) Doctor(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	statuses := shared.CheckBinaries(shared.ToolRequirements(r.config.Tools))

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Tool", "Status", "Path", "Used For"})
	for _, s := range statuses {
		status := "ok"
		path := s.Path
		switch {
		case !s.Available && s.Optional:
			status = "optional, missing"
			path = s.Detail
		case !s.Available:
			status = "missing"
			path = s.Detail
		}
		t.AppendRow(table.Row{s.Name, status, path, s.Description})
	}
	r.writePlainln("%s", t.Render())

	if missing := shared.MissingRequired(statuses); len(missing) > 0 {
		return fmt.Errorf("%w: required tools unavailable: %s", shared.ErrToolsMissing, strings.Join(missing, ", "))
	}
	r.writePlain("✓ All required tools found\n")
	return nil
}
