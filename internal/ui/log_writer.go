package ui

import (
	"io"
	"strings"
	"sync"
)

// LogWriter is an [io.Writer] for a logger shared by the workers while the display runs.
//
// Each Write is one log record; it is queued for the display and printed above the bars.
// After Close, or once the display stops reading, writes go to the fallback writer.
type LogWriter struct {
	lines    chan string
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	fallback io.Writer
}

// NewLogWriter creates a writer queueing up to buffer lines.
func NewLogWriter(buffer int, fallback io.Writer) *LogWriter {
	if fallback == nil {
		fallback = io.Discard
	}
	return &LogWriter{
		lines:    make(chan string, max(buffer, 1)),
		done:     make(chan struct{}),
		fallback: fallback,
	}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	select {
	case <-w.done:
		return w.writeFallback(p)
	default:
	}

	select {
	case w.lines <- line:
		return len(p), nil
	case <-w.done:
		return w.writeFallback(p)
	}
}

// Close stops queueing. Lines already queued are flushed to the fallback writer.
func (w *LogWriter) Close() error {
	w.once.Do(func() {
		close(w.done)
		for {
			select {
			case line := <-w.lines:
				w.writeFallback([]byte(line + "\n"))
			default:
				return
			}
		}
	})
	return nil
}

func (w *LogWriter) writeFallback(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fallback.Write(p)
}

// next blocks until a line is queued or the writer is closed.
func (w *LogWriter) next() (string, bool) {
	select {
	case line := <-w.lines:
		return line, true
	case <-w.done:
		return "", false
	}
}
