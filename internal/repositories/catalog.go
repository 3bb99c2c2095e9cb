package repositories

import (
	"fmt"

	"github.com/desertthunder/ytmd/internal/models"
)

// TrackCatalogAdapter implements tasks.TrackRecorder using TrackRepository.
type TrackCatalogAdapter struct {
	repo *TrackRepository
}

// NewTrackCatalogAdapter creates a new TrackCatalogAdapter with the given repository
func NewTrackCatalogAdapter(repo *TrackRepository) *TrackCatalogAdapter {
	return &TrackCatalogAdapter{repo: repo}
}

// Record adds a produced track to the catalog.
func (a *TrackCatalogAdapter) Record(runID string, item models.WorkItem, track models.EnrichedTrack) error {
	persisted := models.NewPersistedTrack(0, runID, item.Source, track)
	if err := a.repo.Create(persisted); err != nil {
		return fmt.Errorf("failed to record track: %w", err)
	}
	return nil
}
