package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmd/internal/models"
)

// MsgKind enumerates all message types in the display.
type MsgKind int

// Msg represents all possible messages in the display (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgLogLine
	MsgRunFinished
)

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// logLineMsg is the constructor for [MsgLogLine]
func logLineMsg(line string) Msg {
	return Msg{kind: MsgLogLine, data: line}
}

// RunFinished is the constructor for [MsgRunFinished]. Send it to the program once the pool
// has returned; the display renders its final frame and quits.
func RunFinished(report *models.RunReport) Msg {
	return Msg{kind: MsgRunFinished, data: report}
}
