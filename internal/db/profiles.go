package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cradle/internal/models"
)

// ErrNotFound is returned when a profile or event does not exist.
var ErrNotFound = errors.New("not found")

// CreateProfile inserts a new profile, assigning an ID when empty.
func (db *DB) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (
			id, name, nickname, birth_date,
			feeding_interval_min, night_feeding_interval_min,
			pumping_duration_min, pumping_interval_min, night_pumping_interval_min,
			baby_daytime_start, baby_daytime_end,
			parent_daytime_start, parent_daytime_end,
			enable_feeding_reminder, enable_pumping_reminder,
			enable_feeding_notification, enable_pumping_notification,
			enable_other_activities_notification,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Nickname, p.BirthDate,
		minutes(p.Settings.FeedingInterval), minutes(p.Settings.NightFeedingInterval),
		minutes(p.Settings.PumpingDuration), minutes(p.Settings.PumpingInterval), minutes(p.Settings.NightPumpingInterval),
		p.Settings.BabyDaytimeStart, p.Settings.BabyDaytimeEnd,
		p.Settings.ParentDaytimeStart, p.Settings.ParentDaytimeEnd,
		p.Settings.EnableFeedingReminder, p.Settings.EnablePumpingReminder,
		p.Settings.EnableFeedingNotification, p.Settings.EnablePumpingNotification,
		p.Settings.EnableOtherActivitiesNotification,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// UpdateProfile rewrites an existing profile.
func (db *DB) UpdateProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now()

	res, err := db.ExecContext(ctx, `
		UPDATE profiles SET
			name = ?, nickname = ?, birth_date = ?,
			feeding_interval_min = ?, night_feeding_interval_min = ?,
			pumping_duration_min = ?, pumping_interval_min = ?, night_pumping_interval_min = ?,
			baby_daytime_start = ?, baby_daytime_end = ?,
			parent_daytime_start = ?, parent_daytime_end = ?,
			enable_feeding_reminder = ?, enable_pumping_reminder = ?,
			enable_feeding_notification = ?, enable_pumping_notification = ?,
			enable_other_activities_notification = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Name, p.Nickname, p.BirthDate,
		minutes(p.Settings.FeedingInterval), minutes(p.Settings.NightFeedingInterval),
		minutes(p.Settings.PumpingDuration), minutes(p.Settings.PumpingInterval), minutes(p.Settings.NightPumpingInterval),
		p.Settings.BabyDaytimeStart, p.Settings.BabyDaytimeEnd,
		p.Settings.ParentDaytimeStart, p.Settings.ParentDaytimeEnd,
		p.Settings.EnableFeedingReminder, p.Settings.EnablePumpingReminder,
		p.Settings.EnableFeedingNotification, p.Settings.EnablePumpingNotification,
		p.Settings.EnableOtherActivitiesNotification,
		p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// DeleteProfile removes a profile and, through the cascade, its events.
func (db *DB) DeleteProfile(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireRow(res)
}

// GetProfile returns one profile by ID.
func (db *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row := db.QueryRowContext(ctx, profileSelect+` WHERE id = ?`, id)
	return scanProfile(row)
}

// ListProfiles returns all profiles ordered by name.
func (db *DB) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := db.QueryContext(ctx, profileSelect+` ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

const profileSelect = `
	SELECT id, name, nickname, birth_date,
	       feeding_interval_min, night_feeding_interval_min,
	       pumping_duration_min, pumping_interval_min, night_pumping_interval_min,
	       baby_daytime_start, baby_daytime_end,
	       parent_daytime_start, parent_daytime_end,
	       enable_feeding_reminder, enable_pumping_reminder,
	       enable_feeding_notification, enable_pumping_notification,
	       enable_other_activities_notification,
	       created_at, updated_at
	FROM profiles`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p        models.Profile
		birth    sql.NullTime
		feedMin  int
		nFeedMin int
		pumpDur  int
		pumpMin  int
		nPumpMin int
	)
	err := row.Scan(&p.ID, &p.Name, &p.Nickname, &birth,
		&feedMin, &nFeedMin,
		&pumpDur, &pumpMin, &nPumpMin,
		&p.Settings.BabyDaytimeStart, &p.Settings.BabyDaytimeEnd,
		&p.Settings.ParentDaytimeStart, &p.Settings.ParentDaytimeEnd,
		&p.Settings.EnableFeedingReminder, &p.Settings.EnablePumpingReminder,
		&p.Settings.EnableFeedingNotification, &p.Settings.EnablePumpingNotification,
		&p.Settings.EnableOtherActivitiesNotification,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	if birth.Valid {
		p.BirthDate = birth.Time
	}
	p.Settings.FeedingInterval = duration(feedMin)
	p.Settings.NightFeedingInterval = duration(nFeedMin)
	p.Settings.PumpingDuration = duration(pumpDur)
	p.Settings.PumpingInterval = duration(pumpMin)
	p.Settings.NightPumpingInterval = duration(nPumpMin)
	return &p, nil
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

func duration(min int) time.Duration {
	return time.Duration(min) * time.Minute
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
