package models

import (
	"fmt"
)

// WorkItem is one track to be produced by the pipeline.
//
// A WorkItem is created by the resolver, consumed exactly once by one worker and discarded
// afterwards. It is passed by value so a queued item cannot be mutated by its consumer.
type WorkItem struct {
	ID         string // Run-unique identifier used in logs
	Source     string // Opaque remote reference (URL or video ID)
	Dir        string // Destination directory, created before the item is queued
	Ordinal    int    // 1-based position among the resolvable members of the parent collection
	Total      int    // Number of resolvable members in the parent collection
	Hint       string // Optional display title, may be empty or stale
	Collection string // Title of the parent collection, empty for single tracks
}

// Validate checks the ordinal invariant and required fields.
func (w WorkItem) Validate() error {
	if w.Source == "" {
		return fmt.Errorf("work item has no source reference")
	}
	if w.Dir == "" {
		return fmt.Errorf("work item %s has no destination directory", w.Source)
	}
	if w.Total < 1 || w.Ordinal < 1 || w.Ordinal > w.Total {
		return fmt.Errorf("work item %s has ordinal %d outside [1, %d]", w.Source, w.Ordinal, w.Total)
	}
	return nil
}

// Label returns a short human-readable description for logs and progress slots.
func (w WorkItem) Label() string {
	name := w.Hint
	if name == "" {
		name = w.Source
	}
	return fmt.Sprintf("[%d/%d] %s", w.Ordinal, w.Total, name)
}

// Probe is the result of inspecting a reference without transferring media.
type Probe struct {
	IsCollection bool
	Title        string
	Entries      []ProbeEntry
}

// ProbeEntry is one raw member of a probed collection. ID may be empty when the
// remote could not resolve the member (deleted or private videos).
type ProbeEntry struct {
	ID    string
	Title string
	URL   string
}
