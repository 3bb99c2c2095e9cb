// package repositories provides persistence layer implementations for the catalog and cache models.
package repositories

import (
	"database/sql"
	"fmt"
)

// sequencedTables lists the tables that own a <table>_sequence counter.
var sequencedTables = map[string]bool{"tracks": true}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers order the history listing (track #42) independent of UUIDs and creation timestamps.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequencedTables[table] {
		return 0, fmt.Errorf("table %q has no sequence", table)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
