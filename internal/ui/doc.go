// Package ui renders the progress of a download run in the terminal.
//
// [ProgressModel] is a bubbletea model (Init/Update/View) that polls a [SnapshotSource] on a
// fixed tick and draws one bar per worker slot plus the overall bar. It never writes to the
// source. Log lines reach the display through a [LogWriter], which hands them to the model
// so they are printed above the bars instead of tearing them.
//
// When stdout is not a terminal, [PlainReporter] logs the overall counter instead.
package ui
