package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

const lookupColumns = `id, kind, lookup_key, value, created_at, updated_at`

// LookupRepository implements models.Repository[*models.LookupEntry] for cached artwork and lyrics lookups.
//
// Entries are unique per (kind, key). Create upserts so a refreshed lookup replaces the stale one.
type LookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new LookupRepository with the given database connection
func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Create inserts entry or replaces the value of an existing entry with the same kind and key.
func (r *LookupRepository) Create(entry *models.LookupEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if entry.ID() == "" {
		entry.SetID(shared.GenerateID())
	}

	query := `
		INSERT INTO lookups (id, kind, lookup_key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, lookup_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, entry.ID(), string(entry.Kind()), entry.Key(), entry.Value(), entry.CreatedAt(), entry.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert lookup: %w", err)
	}
	return nil
}

// Get retrieves a lookup by ID
func (r *LookupRepository) Get(id string) (*models.LookupEntry, error) {
	query := `SELECT ` + lookupColumns + ` FROM lookups WHERE id = ?`
	return scanLookup(r.db.QueryRow(query, id))
}

// Find retrieves the lookup for kind and key.
func (r *LookupRepository) Find(kind models.LookupKind, key string) (*models.LookupEntry, error) {
	query := `SELECT ` + lookupColumns + ` FROM lookups WHERE kind = ? AND lookup_key = ?`
	return scanLookup(r.db.QueryRow(query, string(kind), key))
}

// Update replaces the value of an existing lookup
func (r *LookupRepository) Update(entry *models.LookupEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE lookups SET value = ?, updated_at = ? WHERE id = ?`, entry.Value(), now, entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update lookup: %w", err)
	}
	return expectAffected(result, "lookup", entry.ID())
}

// Delete removes a lookup by ID. Cached lookups are disposable, so the row is removed outright.
func (r *LookupRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM lookups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lookup: %w", err)
	}
	return expectAffected(result, "lookup", id)
}

// List retrieves lookups, optionally filtered by "kind" ([models.LookupKind] or string).
func (r *LookupRepository) List(criteria map[string]any) ([]*models.LookupEntry, error) {
	query := `SELECT ` + lookupColumns + ` FROM lookups`
	args := []any{}

	switch kind := criteria["kind"].(type) {
	case models.LookupKind:
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	case string:
		if kind != "" {
			query += " WHERE kind = ?"
			args = append(args, kind)
		}
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var entries []*models.LookupEntry
	for rows.Next() {
		entry, err := scanLookup(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Clear removes cached lookups of the given kind, or all of them when kind is empty.
func (r *LookupRepository) Clear(kind models.LookupKind) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if kind == "" {
		result, err = r.db.Exec(`DELETE FROM lookups`)
	} else {
		result, err = r.db.Exec(`DELETE FROM lookups WHERE kind = ?`, string(kind))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear lookups: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of cached lookups per kind.
func (r *LookupRepository) Count() (map[models.LookupKind]int, error) {
	rows, err := r.db.Query(`SELECT kind, COUNT(*) FROM lookups GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count lookups: %w", err)
	}
	defer rows.Close()

	counts := map[models.LookupKind]int{}
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan lookup count: %w", err)
		}
		counts[models.LookupKind(kind)] = n
	}
	return counts, rows.Err()
}

func scanLookup(row rowScanner) (*models.LookupEntry, error) {
	var (
		id, kind, key, value string
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &kind, &key, &value, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup %w", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lookup: %w", err)
	}

	entry := models.NewLookupEntry(models.LookupKind(kind), key, value)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	return entry, nil
}
