package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/memboost/internal/stats"
)

// Action names recorded in the event log.
const (
	ActionPurge          = "purge"
	ActionPurgeTerminate = "purge+terminate"
)

// Trigger origins.
const (
	TriggerManual = "manual"
	TriggerAuto   = "auto"
)

// Event is one orchestrated reclaim action and its measured effect.
// Events are append-only: once written they are never mutated, and only
// Cleanup may remove them, whole records at a time.
type Event struct {
	ID        string              `json:"id"`
	Timestamp int64               `json:"ts"` // unix millis
	Action    string              `json:"action"`
	Trigger   string              `json:"trigger"`
	Before    stats.Snapshot      `json:"before"`
	After     stats.Snapshot      `json:"after"`
	DeltaMB   int64               `json:"delta_mb"`
	Pressure  stats.PressureLevel `json:"pressure"`
	Details   json.RawMessage     `json:"details"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(action, trigger string) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Action:    action,
		Trigger:   trigger,
		Details:   json.RawMessage("{}"),
	}
}

// Append durably stores one event. The write has been synced to disk by
// the time this returns.
func (db *DB) Append(e Event) error {
	beforeJSON, err := json.Marshal(e.Before)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	afterJSON, err := json.Marshal(e.After)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}
	details := e.Details
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}

	_, err = db.Exec(`
		INSERT INTO events (id, ts, action, origin, before_json, after_json, delta_mb, pressure, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp, e.Action, e.Trigger, string(beforeJSON), string(afterJSON),
		e.DeltaMB, string(e.Pressure), string(details))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Query returns events with from <= ts < to, in chronological order.
func (db *DB) Query(from, to time.Time) ([]Event, error) {
	rows, err := db.DB.Query(`
		SELECT id, ts, action, origin, before_json, after_json, delta_mb, pressure, details
		FROM events WHERE ts >= ? AND ts < ? ORDER BY ts
	`, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var beforeJSON, afterJSON, pressure, details string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.Trigger,
			&beforeJSON, &afterJSON, &e.DeltaMB, &pressure, &details); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(beforeJSON), &e.Before); err != nil {
			return nil, fmt.Errorf("decode before snapshot for %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(afterJSON), &e.After); err != nil {
			return nil, fmt.Errorf("decode after snapshot for %s: %w", e.ID, err)
		}
		e.Pressure = stats.PressureLevel(pressure)
		e.Details = json.RawMessage(details)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Cleanup deletes whole events older than retainDays. This is the only
// mutation permitted on historical records. Returns the number removed.
func (db *DB) Cleanup(retainDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retainDays).UnixMilli()
	res, err := db.Exec("DELETE FROM events WHERE ts < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup events: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every event. Returns the number removed.
func (db *DB) Clear() (int64, error) {
	res, err := db.Exec("DELETE FROM events")
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	return res.RowsAffected()
}

// LogStats summarizes the event log for `log stats`.
type LogStats struct {
	Count  int   `json:"count"`
	Oldest int64 `json:"oldest"` // unix millis, zero when empty
	Newest int64 `json:"newest"`
}

// Stats returns event count and timestamp range.
func (db *DB) Stats() (LogStats, error) {
	var s LogStats
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(MIN(ts), 0), COALESCE(MAX(ts), 0) FROM events
	`).Scan(&s.Count, &s.Oldest, &s.Newest)
	if err != nil {
		return LogStats{}, fmt.Errorf("event stats: %w", err)
	}
	return s, nil
}
