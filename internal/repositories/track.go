package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

const trackColumns = `id, sequence, run_id, source_id, title, artist, album, ordinal, total, path, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.PersistedTrack] for the produced-track catalog.
//
// Rows are soft deleted and excluded from queries once deleted_at is set.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.PersistedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.PersistedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	track.SetID(shared.GenerateID())
	track.SetSequence(sequence)

	query := `
		INSERT INTO tracks (id, sequence, run_id, source_id, title, artist, album, ordinal, total, path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.ID(),
		track.Sequence(),
		track.RunID(),
		track.SourceID(),
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Ordinal(),
		track.Total(),
		track.Path(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.PersistedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return scanTrack(r.db.QueryRow(query, id))
}

// GetByPath retrieves the most recent catalog entry for a media file path
func (r *TrackRepository) GetByPath(path string) (*models.PersistedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE path = ? AND deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`
	return scanTrack(r.db.QueryRow(query, path))
}

// Update modifies the descriptive fields of an existing track
func (r *TrackRepository) Update(track *models.PersistedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, track.Title(), track.Artist(), track.Album(), track.Path(), now, track.ID())
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return expectAffected(result, "track", track.ID())
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	return expectAffected(result, "track", id)
}

// List retrieves all tracks matching the given criteria in catalog order, excluding soft-deleted tracks.
//
// Supported criteria: "run_id" and "source_id" (string), "limit" (int).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.PersistedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if sourceID, ok := criteria["source_id"].(string); ok && sourceID != "" {
		query += " AND source_id = ?"
		args = append(args, sourceID)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.query(query, args...)
}

// Recent returns up to limit tracks, newest first.
func (r *TrackRepository) Recent(limit int) ([]*models.PersistedTrack, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT ?`
	return r.query(query, limit)
}

func (r *TrackRepository) query(query string, args ...any) ([]*models.PersistedTrack, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PersistedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// rowScanner is satisfied by [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*models.PersistedTrack, error) {
	var (
		id, runID, sourceID  string
		title, artist, album string
		path                 string
		sequence             int
		ordinal, total       int
		createdAt, updatedAt time.Time
		deletedAt            sql.NullTime
	)

	err := row.Scan(&id, &sequence, &runID, &sourceID, &title, &artist, &album, &ordinal, &total, &path, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track %w", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.NewPersistedTrack(sequence, runID, sourceID, models.EnrichedTrack{
		Path:    path,
		Title:   title,
		Artist:  artist,
		Album:   album,
		Ordinal: ordinal,
		Total:   total,
	})
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

func expectAffected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, shared.ErrRecordNotFound)
	}
	return nil
}
