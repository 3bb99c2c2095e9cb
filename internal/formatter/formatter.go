// package formatter renders run results: the end-of-run summary table, the JSON run manifest
// written next to the produced files, and the catalog history listing.
package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/ytmd/internal/models"
)

// ManifestFileName is the run manifest written into the output root.
const ManifestFileName = "ytmd-run.json"

// FormatDuration renders whole seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// SummaryLine returns a one-line count of outcomes by status.
func SummaryLine(report *models.RunReport) string {
	parts := []string{
		fmt.Sprintf("%d succeeded", report.Count(models.StatusSucceeded)),
		fmt.Sprintf("%d abandoned", report.Count(models.StatusAbandoned)),
	}
	if n := report.Count(models.StatusInterrupted); n > 0 {
		parts = append(parts, fmt.Sprintf("%d interrupted", n))
	}
	if n := report.Count(models.StatusSkipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	return fmt.Sprintf("%s of %d in %s", strings.Join(parts, ", "), report.Total(), report.Elapsed().Round(time.Second))
}

// SummaryTable renders one row per work item in report order, with a totals footer.
func SummaryTable(report *models.RunReport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Status", "Track", "Length", "Size", "Tries", "Detail"})

	var bytes uint64
	for _, o := range report.Outcomes {
		name, length, size, detail := o.Item.Label(), "-", "-", ""
		switch {
		case o.Track != nil:
			name = fmt.Sprintf("%s - %s", o.Track.Artist, o.Track.Title)
			length = FormatDuration(o.Track.Duration)
			if o.Track.Size > 0 {
				size = humanize.Bytes(uint64(o.Track.Size))
				bytes += uint64(o.Track.Size)
			}
			detail = filepath.Base(o.Track.Path)
		case o.Err != nil:
			detail = o.Err.Error()
		}

		tw.AppendRow(table.Row{
			fmt.Sprintf("%d/%d", o.Item.Ordinal, o.Item.Total),
			o.Status.String(),
			truncate(name, 48),
			length,
			size,
			attemptsCell(o.Attempts),
			truncate(detail, 60),
		})
	}

	tw.AppendFooter(table.Row{"", "", SummaryLine(report), "", humanize.Bytes(bytes), "", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return tw.Render()
}

// HistoryTable renders catalog entries, newest first as given, with ages relative to now.
func HistoryTable(tracks []*models.PersistedTrack, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Added", "Artist", "Title", "Album", "#", "Path"})

	for _, t := range tracks {
		tw.AppendRow(table.Row{
			humanize.RelTime(t.CreatedAt(), now, "ago", "from now"),
			t.Artist(),
			truncate(t.Title(), 40),
			truncate(t.Album(), 32),
			fmt.Sprintf("%d/%d", t.Ordinal(), t.Total()),
			t.Path(),
		})
	}
	tw.AppendFooter(table.Row{"", "", humanize.Comma(int64(len(tracks))) + " tracks", "", "", ""})
	return tw.Render()
}

type manifestItem struct {
	Source     string `json:"source"`
	Collection string `json:"collection,omitempty"`
	Ordinal    int    `json:"ordinal"`
	Total      int    `json:"total"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Path       string `json:"path,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Lyrics     string `json:"lyrics,omitempty"`
	Cover      bool   `json:"cover"`
	Error      string `json:"error,omitempty"`
}

type manifest struct {
	RunID       string         `json:"run_id"`
	Started     time.Time      `json:"started"`
	Finished    time.Time      `json:"finished"`
	Succeeded   int            `json:"succeeded"`
	Abandoned   int            `json:"abandoned"`
	Interrupted int            `json:"interrupted"`
	Skipped     int            `json:"skipped"`
	Items       []manifestItem `json:"items"`
}

// ExportToJSON encodes report as an indented run manifest.
func ExportToJSON(report *models.RunReport) ([]byte, error) {
	m := manifest{
		RunID:       report.RunID,
		Started:     report.Started,
		Finished:    report.Finished,
		Succeeded:   report.Count(models.StatusSucceeded),
		Abandoned:   report.Count(models.StatusAbandoned),
		Interrupted: report.Count(models.StatusInterrupted),
		Skipped:     report.Count(models.StatusSkipped),
		Items:       make([]manifestItem, 0, len(report.Outcomes)),
	}

	for _, o := range report.Outcomes {
		item := manifestItem{
			Source:     o.Item.Source,
			Collection: o.Item.Collection,
			Ordinal:    o.Item.Ordinal,
			Total:      o.Item.Total,
			Status:     o.Status.String(),
			Attempts:   o.Attempts,
		}
		if t := o.Track; t != nil {
			item.Path = t.Path
			item.Title = t.Title
			item.Artist = t.Artist
			item.Album = t.Album
			item.Duration = t.Duration
			item.Size = t.Size
			item.Lyrics = t.LyricsPath
			item.Cover = len(t.Cover) > 0
		}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		m.Items = append(m.Items, item)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteRunManifest writes the manifest for report into dir and returns its path.
func WriteRunManifest(report *models.RunReport, dir string) (string, error) {
	data, err := ExportToJSON(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run manifest: %w", err)
	}
	return path, nil
}

func attemptsCell(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
