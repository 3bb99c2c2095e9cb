package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/tasks"
	"github.com/desertthunder/ytmd/internal/ui"
	"github.com/mattn/go-isatty"
)

const (
	logBuffer     = 256
	plainInterval = 5 * time.Second
)

// runWithDisplay runs the pool behind the progress bars.
//
// With forwardLogs set, log records are printed above the bars while the display is up. The quit
// key cancels the run context, which lets in-flight items finish as interrupted. The report is
// always returned, even when the display fails.
func (r *Runner) runWithDisplay(ctx context.Context, cancel context.CancelFunc, pool *tasks.Pool, agg *tasks.Aggregator, title string, forwardLogs bool) (*models.RunReport, error) {
	var logs *ui.LogWriter
	if forwardLogs {
		logs = ui.NewLogWriter(logBuffer, r.logOutput)
		r.logger.SetOutput(logs)
		defer func() {
			logs.Close()
			r.logger.SetOutput(r.logOutput)
		}()
	}

	model := ui.NewProgressModel(title, agg, logs, cancel)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))

	done := make(chan *models.RunReport, 1)
	go func() {
		report := pool.Run(ctx)
		done <- report
		p.Send(ui.RunFinished(report))
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		if logs != nil {
			logs.Close()
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return <-done, nil
		}
		return <-done, fmt.Errorf("error running progress display: %w", err)
	}
	return <-done, nil
}

// runPlain runs the pool while logging the overall counter.
func (r *Runner) runPlain(ctx context.Context, pool *tasks.Pool, agg *tasks.Aggregator) *models.RunReport {
	reportCtx, stop := context.WithCancel(ctx)
	reporter := ui.NewPlainReporter(agg, r.logger, plainInterval)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		reporter.Run(reportCtx)
	}()

	report := pool.Run(ctx)
	stop()
	<-finished
	reporter.Check(true)
	return report
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
