package db

import (
	"database/sql"
	"fmt"
)

// Stats summarizes the store contents.
type Stats struct {
	LinksByResource map[string]int64
	EventsByType    map[string]int64
}

// RecordLink stores (or refreshes) the mapping between a local reference and
// the Sellsy id it was synchronized to.
func (s *Store) RecordLink(resourceType, localRef string, sellsyID int64) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_ledger (resource_type, local_ref, sellsy_id)
		VALUES (?, ?, ?)
		ON CONFLICT(resource_type, local_ref)
		DO UPDATE SET sellsy_id = excluded.sellsy_id, updated_at = CURRENT_TIMESTAMP
	`, resourceType, localRef, sellsyID)
	if err != nil {
		return fmt.Errorf("failed to record sync link: %w", err)
	}
	return nil
}

// SellsyID looks up the Sellsy id previously recorded for a local reference.
// The second return value reports whether a link exists.
func (s *Store) SellsyID(resourceType, localRef string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT sellsy_id FROM sync_ledger
		WHERE resource_type = ? AND local_ref = ?
	`, resourceType, localRef).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up sync link: %w", err)
	}
	return id, true, nil
}

// DeleteLink removes the mapping for a local reference. Missing links are
// not an error.
func (s *Store) DeleteLink(resourceType, localRef string) error {
	_, err := s.db.Exec(`
		DELETE FROM sync_ledger
		WHERE resource_type = ? AND local_ref = ?
	`, resourceType, localRef)
	if err != nil {
		return fmt.Errorf("failed to delete sync link: %w", err)
	}
	return nil
}

// RecordEvent archives a received webhook event.
func (s *Store) RecordEvent(eventType, relatedType string, relatedID int64, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO webhook_events (event_type, related_type, related_id, payload)
		VALUES (?, ?, ?, ?)
	`, eventType, relatedType, relatedID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

// GetStats returns per-resource link counts and per-type event counts.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{
		LinksByResource: make(map[string]int64),
		EventsByType:    make(map[string]int64),
	}

	rows, err := s.db.Query(`
		SELECT resource_type, COUNT(*) FROM sync_ledger GROUP BY resource_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var resource string
		var count int64
		if err := rows.Scan(&resource, &count); err != nil {
			return nil, fmt.Errorf("failed to scan ledger stats: %w", err)
		}
		stats.LinksByResource[resource] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger stats: %w", err)
	}

	eventRows, err := s.db.Query(`
		SELECT event_type, COUNT(*) FROM webhook_events GROUP BY event_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query event stats: %w", err)
	}
	defer eventRows.Close()
	for eventRows.Next() {
		var eventType string
		var count int64
		if err := eventRows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event stats: %w", err)
		}
		stats.EventsByType[eventType] = count
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event stats: %w", err)
	}

	return stats, nil
}
