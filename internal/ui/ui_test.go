package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/tasks"
)

type fakeSource struct {
	mu   sync.Mutex
	snap tasks.Snapshot
}

func (f *fakeSource) Snapshot() tasks.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) set(overall, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Overall = overall
	f.snap.OverallTotal = total
}

func TestProgressModel(t *testing.T) {
	t.Run("View Draws Every Slot", func(t *testing.T) {
		agg := tasks.NewAggregator(2, 5)
		agg.UpdateSlot(0, tasks.Describe("[1/5] Song downloading").WithTotal(2_000_000).WithCompleted(1_000_000))
		agg.AdvanceOverall(2)

		m := NewProgressModel("ytmd", agg, nil, nil)
		m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
		view := m.View()

		for _, want := range []string{"ytmd", "worker 1", "worker 2", "[1/5] Song downloading", "1.0 MB/2.0 MB", "idle", "overall", "2/5"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("Tick Refreshes The Snapshot", func(t *testing.T) {
		src := &fakeSource{}
		src.set(0, 4)
		m := NewProgressModel("run", src, nil, nil)

		src.set(3, 4)
		_, cmd := m.Update(tickMsg(time.Now()))
		if cmd == nil {
			t.Error("expected another tick to be scheduled")
		}
		if !strings.Contains(m.View(), "3/4") {
			t.Errorf("expected refreshed counter, got:\n%s", m.View())
		}
	})

	t.Run("Run Finished Quits", func(t *testing.T) {
		src := &fakeSource{}
		src.set(1, 1)
		m := NewProgressModel("run", src, nil, nil)
		report := &models.RunReport{RunID: "r"}

		_, cmd := m.Update(RunFinished(report))
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.Report() != report {
			t.Error("expected the report to be kept")
		}
		if !strings.Contains(m.View(), "done") {
			t.Errorf("expected final frame, got:\n%s", m.View())
		}
	})

	t.Run("Quit Key Cancels Once", func(t *testing.T) {
		calls := 0
		m := NewProgressModel("run", &fakeSource{}, nil, func() { calls++ })

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		if calls != 1 {
			t.Errorf("expected cancel to be called once, got %d", calls)
		}
		if !strings.Contains(m.View(), "stopping") {
			t.Errorf("expected stopping notice, got:\n%s", m.View())
		}
	})

	t.Run("Help Toggle", func(t *testing.T) {
		m := NewProgressModel("run", &fakeSource{}, nil, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
		if !m.help.ShowAll {
			t.Error("expected full help")
		}
	})

	t.Run("Log Lines Are Forwarded", func(t *testing.T) {
		logs := NewLogWriter(4, nil)
		m := NewProgressModel("run", &fakeSource{}, logs, nil)

		logs.Write([]byte("INFO completed\n"))
		msg := m.waitForLog()()
		got, ok := msg.(Msg)
		if !ok || got.kind != MsgLogLine || got.data.(string) != "INFO completed" {
			t.Fatalf("unexpected message %#v", msg)
		}

		_, cmd := m.Update(got)
		if cmd == nil {
			t.Error("expected print and wait commands")
		}
	})
}

func TestSlotDetail(t *testing.T) {
	tc := []struct {
		name string
		slot tasks.Slot
		want string
	}{
		{name: "with total", slot: tasks.Slot{Description: "dl", Completed: 500_000, Total: 1_000_000, HasTotal: true}, want: "dl 500 kB/1.0 MB"},
		{name: "without total", slot: tasks.Slot{Description: "dl", Completed: 2048}, want: "dl 2.0 kB"},
		{name: "description only", slot: tasks.Slot{Description: "converting"}, want: "converting"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlotDetail(tt.slot, 80); got != tt.want {
				t.Errorf("SlotDetail() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("truncates", func(t *testing.T) {
		got := SlotDetail(tasks.Slot{Description: strings.Repeat("x", 50)}, 10)
		if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
			t.Errorf("unexpected truncation %q", got)
		}
	})
}

func TestLogWriter(t *testing.T) {
	t.Run("Queues Lines", func(t *testing.T) {
		w := NewLogWriter(2, nil)
		n, err := w.Write([]byte("one\n"))
		if err != nil || n != 4 {
			t.Fatalf("unexpected write result %d, %v", n, err)
		}
		if line, ok := w.next(); !ok || line != "one" {
			t.Errorf("expected queued line, got %q %v", line, ok)
		}
	})

	t.Run("Close Flushes To Fallback", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewLogWriter(4, &buf)
		w.Write([]byte("queued\n"))
		w.Close()
		w.Write([]byte("late\n"))

		if got := buf.String(); got != "queued\nlate\n" {
			t.Errorf("unexpected fallback output %q", got)
		}
		if _, ok := w.next(); ok {
			t.Error("expected next to report a closed writer")
		}
		if err := w.Close(); err != nil {
			t.Errorf("expected Close to be idempotent, got %v", err)
		}
	})

	t.Run("Close Releases Blocked Writers", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewLogWriter(1, &buf)
		w.Write([]byte("fills the buffer\n"))

		done := make(chan struct{})
		go func() {
			w.Write([]byte("blocked\n"))
			close(done)
		}()

		time.Sleep(10 * time.Millisecond)
		w.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("writer stayed blocked after Close")
		}
	})

	t.Run("Works As A Logger Sink", func(t *testing.T) {
		w := NewLogWriter(8, nil)
		logger := log.New(w)
		logger.Info("completed", "path", "01 Song.mp3")

		line, ok := w.next()
		if !ok || !strings.Contains(line, "completed") || strings.HasSuffix(line, "\n") {
			t.Errorf("unexpected line %q", line)
		}
	})
}

func TestPlainReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	src := &fakeSource{}
	src.set(0, 100)
	r := NewPlainReporter(src, logger, time.Minute)

	if r.Check(true) {
		t.Error("expected nothing logged before progress")
	}

	src.set(1, 100)
	if !r.Check(false) {
		t.Error("expected the first bucket to be logged")
	}

	src.set(2, 100)
	if r.Check(false) {
		t.Error("expected the same bucket to be skipped")
	}
	if !r.Check(true) {
		t.Error("expected a forced check to log a change")
	}
	if r.Check(true) {
		t.Error("expected an unchanged counter to be skipped")
	}

	src.set(100, 100)
	r.Check(false)
	if !strings.Contains(buf.String(), "done=100") || !strings.Contains(buf.String(), "percent=100") {
		t.Errorf("unexpected log output:\n%s", buf.String())
	}
}
