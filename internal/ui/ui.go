package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/tasks"
)

const (
	// TickInterval is how often the display polls its source.
	TickInterval = 100 * time.Millisecond

	labelWidth   = 10
	defaultWidth = 80
	minBarWidth  = 10
	maxBarWidth  = 40
)

// SnapshotSource is read by the display. [tasks.Aggregator] implements it.
type SnapshotSource interface {
	Snapshot() tasks.Snapshot
}

// ProgressModel draws the worker slots and the overall counter of a running pool.
type ProgressModel struct {
	title    string
	source   SnapshotSource
	logs     *LogWriter
	cancel   context.CancelFunc
	snap     tasks.Snapshot
	bar      progress.Model
	help     help.Model
	keys     keyMap
	width    int
	stopping bool
	report   *models.RunReport
}

// NewProgressModel creates a display for source. logs and cancel may be nil; cancel is called
// when the user asks to stop.
func NewProgressModel(title string, source SnapshotSource, logs *LogWriter, cancel context.CancelFunc) *ProgressModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	return &ProgressModel{
		title:  title,
		source: source,
		logs:   logs,
		cancel: cancel,
		snap:   source.Snapshot(),
		bar:    bar,
		help:   help.New(),
		keys:   newKeyMap(),
		width:  defaultWidth,
	}
}

// Report returns the run report once [RunFinished] has been received.
func (m *ProgressModel) Report() *models.RunReport {
	return m.report
}

// Init starts polling and log forwarding.
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForLog())
}

// Update handles incoming messages and updates the model state.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgTick:
			m.snap = m.source.Snapshot()
			if m.report != nil {
				return m, nil
			}
			return m, tick()
		case MsgLogLine:
			return m, tea.Sequence(tea.Println(msg.data.(string)), m.waitForLog())
		case MsgRunFinished:
			m.report, _ = msg.data.(*models.RunReport)
			m.snap = m.source.Snapshot()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ProgressModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// View renders the title, one row per worker slot, the overall bar and the key help.
func (m *ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	barWidth := min(max(m.width/3, minBarWidth), maxBarWidth)
	m.bar.Width = barWidth

	for i, slot := range m.snap.Slots {
		b.WriteString(styles.label.Render(fmt.Sprintf("worker %d", i+1)))
		b.WriteString(m.bar.ViewAs(slot.Fraction()))
		b.WriteString(" ")
		b.WriteString(SlotDetail(slot, m.width-labelWidth-barWidth-2))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.label.Render("overall"))
	b.WriteString(m.bar.ViewAs(m.snap.Fraction()))
	b.WriteString(fmt.Sprintf(" %d/%d", m.snap.Overall, m.snap.OverallTotal))
	b.WriteString("\n\n")

	switch {
	case m.report != nil:
		b.WriteString(styles.ok.Render("done"))
	case m.stopping:
		b.WriteString(styles.warn.Render("stopping: waiting for in-flight tracks"))
	default:
		b.WriteString(m.help.View(m.keys))
	}
	b.WriteString("\n")
	return b.String()
}

// SlotDetail formats a slot's description and byte counts to fit width columns.
func SlotDetail(slot tasks.Slot, width int) string {
	detail := slot.Description
	if slot.HasTotal && slot.Total > 1 {
		detail = fmt.Sprintf("%s %s/%s", detail,
			humanize.Bytes(uint64(slot.Completed)), humanize.Bytes(uint64(slot.Total)))
	} else if slot.Completed > 0 {
		detail = fmt.Sprintf("%s %s", detail, humanize.Bytes(uint64(slot.Completed)))
	}

	if slot.Description == tasks.IdleDescription {
		detail = styles.help.Render(detail)
	}
	if width > 1 {
		r := []rune(detail)
		if len(r) > width && slot.Description != tasks.IdleDescription {
			detail = string(r[:width-1]) + "…"
		}
	}
	return detail
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForLog blocks for the next log line, following the channel-reading command pattern.
func (m *ProgressModel) waitForLog() tea.Cmd {
	if m.logs == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := m.logs.next()
		if !ok {
			return nil
		}
		return logLineMsg(line)
	}
}
