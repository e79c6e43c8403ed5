package reminder

import (
	"fmt"
	"strings"
	"time"

	"cradle/internal/models"
)

// Kind is the reminder family a subject belongs to.
type Kind string

const (
	KindFeeding Kind = "feeding"
	KindPumping Kind = "pumping"
)

// KindForEvent maps an event type to its reminder kind. Only feeding
// (bottle feed, nursing) and pumping events are reminder-eligible.
func KindForEvent(t models.EventType) (Kind, bool) {
	family, ok := t.Family()
	if !ok {
		return "", false
	}
	switch family {
	case models.FamilyFeeding:
		return KindFeeding, true
	case models.FamilyPumping:
		return KindPumping, true
	}
	return "", false
}

// Subject is the live reminder tracked for one (profile, kind) pair,
// anchored to the latest known event of that kind.
type Subject struct {
	EventID   string
	ProfileID string
	Kind      Kind
	EventTime time.Time

	// LastNotified is the tick time of the most recently fired stage.
	// It only moves forward, except when an event edit shifts EventTime
	// and resets the stage history.
	LastNotified *time.Time
}

// timingConfig is the interval/window slice of the profile settings the
// subject's kind reads.
type timingConfig struct {
	dayInterval   time.Duration
	nightInterval time.Duration
	daytimeStart  int
	daytimeEnd    int
}

func (s *Subject) timing(snap *Snapshot) timingConfig {
	if s.Kind == KindPumping {
		return timingConfig{
			dayInterval:   snap.PumpingInterval,
			nightInterval: snap.NightPumpingInterval,
			daytimeStart:  snap.ParentDaytimeStart,
			daytimeEnd:    snap.ParentDaytimeEnd,
		}
	}
	return timingConfig{
		dayInterval:   snap.FeedingInterval,
		nightInterval: snap.NightFeedingInterval,
		daytimeStart:  snap.BabyDaytimeStart,
		daytimeEnd:    snap.BabyDaytimeEnd,
	}
}

func (s *Subject) notifyEnabled(snap *Snapshot) bool {
	if s.Kind == KindPumping {
		return snap.EnablePumpingReminder
	}
	return snap.EnableFeedingReminder
}

// NextEventTime derives when the next event of this subject's kind is
// expected, or false when no reminder can be derived: a zero interval
// disables the reminder for that part of the day, and an interval
// configuration where neither candidate lands in its own window yields
// nothing rather than a guess.
func (s *Subject) NextEventTime(snap *Snapshot, now time.Time) (time.Time, bool) {
	cfg := s.timing(snap)

	if isDaytime(now, s.EventTime, cfg.daytimeStart, cfg.daytimeEnd) {
		if cfg.dayInterval == 0 {
			return time.Time{}, false
		}
	} else if cfg.nightInterval == 0 {
		return time.Time{}, false
	}

	candidate := s.EventTime.Add(cfg.dayInterval)
	if isDaytime(now, candidate, cfg.daytimeStart, cfg.daytimeEnd) {
		return candidate, true
	}
	candidate = s.EventTime.Add(cfg.nightInterval)
	if !isDaytime(now, candidate, cfg.daytimeStart, cfg.daytimeEnd) {
		return candidate, true
	}
	return time.Time{}, false
}

func (s *Subject) label() string {
	if s.Kind == KindPumping {
		return "Pumping"
	}
	return "Feeding"
}

// Message builds the notification text for a stage: how soon the next
// event is due and how long ago the last one was logged.
func (s *Subject) Message(snap *Snapshot, advance time.Duration, now time.Time) string {
	label := s.label()
	due := "due now"
	if advance > 0 {
		due = fmt.Sprintf("due in %s", humanDuration(advance))
	}
	since := humanDuration(now.Sub(s.EventTime))
	return fmt.Sprintf("%s for %s is %s (last %s was %s ago)",
		label, snap.Handle, due, strings.ToLower(label), since)
}

// humanDuration formats d as a strict relative duration, e.g.
// "2 hours 15 minutes". Sub-minute durations collapse to "under a minute".
func humanDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "under a minute"
	}

	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
