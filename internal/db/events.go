package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cradle/internal/models"
)

// CreateEvent inserts a logged event, assigning an ID when empty.
func (db *DB) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, profile_id, type, time, end_time, amount, unit, details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProfileID, string(e.Type), e.Time, nullableTime(e.EndTime),
		e.Amount, e.Unit, e.Details, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpdateEvent rewrites a logged event.
func (db *DB) UpdateEvent(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now()

	res, err := db.ExecContext(ctx, `
		UPDATE events SET type = ?, time = ?, end_time = ?, amount = ?, unit = ?, details = ?, updated_at = ?
		WHERE id = ?`,
		string(e.Type), e.Time, nullableTime(e.EndTime), e.Amount, e.Unit, e.Details, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

// DeleteEvent removes a logged event.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

// GetEvent returns one event by ID.
func (db *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := db.QueryRowContext(ctx, eventSelect+` WHERE id = ?`, id)
	return scanEvent(row)
}

// EventFilter narrows event queries. Zero values mean "no restriction".
type EventFilter struct {
	ProfileID string
	Types     []models.EventType
	From      time.Time
	To        time.Time
	Text      string // substring match against details
	Limit     int
}

// FindEvents returns events matching the filter, newest first.
func (db *DB) FindEvents(ctx context.Context, f EventFilter) ([]models.Event, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.ProfileID != "" {
		conds = append(conds, "profile_id = ?")
		args = append(args, f.ProfileID)
	}
	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ", ")))
	}
	if !f.From.IsZero() {
		conds = append(conds, "time >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "time < ?")
		args = append(args, f.To)
	}
	if f.Text != "" {
		conds = append(conds, "details LIKE ?")
		args = append(args, "%"+f.Text+"%")
	}

	query := eventSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY time DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventsForDay returns a profile's events for one local calendar day,
// oldest first, for the daily log grid.
func (db *DB) EventsForDay(ctx context.Context, profileID string, day time.Time) ([]models.Event, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	events, err := db.FindEvents(ctx, EventFilter{
		ProfileID: profileID,
		From:      start,
		To:        start.Add(24 * time.Hour),
	})
	if err != nil {
		return nil, err
	}
	// FindEvents is newest-first; the grid reads top-down.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

const eventSelect = `
	SELECT id, profile_id, type, time, end_time, amount, unit, details, created_at, updated_at
	FROM events`

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e   models.Event
		typ string
		end sql.NullTime
	)
	err := row.Scan(&e.ID, &e.ProfileID, &typ, &e.Time, &end,
		&e.Amount, &e.Unit, &e.Details, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.Type = models.EventType(typ)
	if end.Valid {
		t := end.Time
		e.EndTime = &t
	}
	return &e, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
