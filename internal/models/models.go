package models

import "time"

// EventType identifies what kind of activity was logged.
type EventType string

const (
	EventBottleFeed  EventType = "bottle_feed"
	EventNursing     EventType = "nursing"
	EventPumping     EventType = "pumping"
	EventDiaper      EventType = "diaper"
	EventSleep       EventType = "sleep"
	EventPlay        EventType = "play"
	EventBath        EventType = "bath"
	EventMeasurement EventType = "measurement"
	EventMedicine    EventType = "medicine"
	EventNote        EventType = "note"
)

// Family groups event types that share one reminder policy.
// Bottle feeds and nursing count toward the same "last feeding".
type Family string

const (
	FamilyFeeding Family = "feeding"
	FamilyPumping Family = "pumping"
)

var eventFamilies = map[EventType]Family{
	EventBottleFeed: FamilyFeeding,
	EventNursing:    FamilyFeeding,
	EventPumping:    FamilyPumping,
}

// Family returns the reminder family for the event type.
// Non-repeatable types (diaper, sleep, ...) have no family.
func (t EventType) Family() (Family, bool) {
	f, ok := eventFamilies[t]
	return f, ok
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventBottleFeed, EventNursing, EventPumping, EventDiaper, EventSleep,
		EventPlay, EventBath, EventMeasurement, EventMedicine, EventNote:
		return true
	}
	return false
}

// Label returns a human-readable name for the event type.
func (t EventType) Label() string {
	switch t {
	case EventBottleFeed:
		return "Bottle feed"
	case EventNursing:
		return "Nursing"
	case EventPumping:
		return "Pumping"
	case EventDiaper:
		return "Diaper change"
	case EventSleep:
		return "Sleep"
	case EventPlay:
		return "Play"
	case EventBath:
		return "Bath"
	case EventMeasurement:
		return "Measurement"
	case EventMedicine:
		return "Medicine"
	case EventNote:
		return "Note"
	}
	return string(t)
}

// Settings is the per-profile scheduling and notification configuration.
// Daytime windows are half-open hour ranges [start, end) in local hours 0-24.
// A zero interval disables the reminder for that part of the day.
type Settings struct {
	FeedingInterval      time.Duration
	NightFeedingInterval time.Duration
	PumpingDuration      time.Duration
	PumpingInterval      time.Duration
	NightPumpingInterval time.Duration

	BabyDaytimeStart   int
	BabyDaytimeEnd     int
	ParentDaytimeStart int
	ParentDaytimeEnd   int

	EnableFeedingReminder             bool
	EnablePumpingReminder             bool
	EnableFeedingNotification         bool
	EnablePumpingNotification         bool
	EnableOtherActivitiesNotification bool
}

// DefaultSettings returns the settings applied to a new profile.
func DefaultSettings() Settings {
	return Settings{
		FeedingInterval:      3 * time.Hour,
		NightFeedingInterval: 4 * time.Hour,
		PumpingDuration:      20 * time.Minute,
		PumpingInterval:      3 * time.Hour,
		NightPumpingInterval: 5 * time.Hour,
		BabyDaytimeStart:     7,
		BabyDaytimeEnd:       19,
		ParentDaytimeStart:   7,
		ParentDaytimeEnd:     22,

		EnableFeedingReminder: true,
	}
}

// Profile is a baby being tracked.
type Profile struct {
	ID        string
	Name      string
	Nickname  string
	BirthDate time.Time
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Handle returns the name used in notification text: the nickname when
// set, otherwise the full name.
func (p *Profile) Handle() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Name
}

// Event is one logged occurrence for a profile.
type Event struct {
	ID        string
	ProfileID string
	Type      EventType
	Time      time.Time
	EndTime   *time.Time
	Amount    float64 // ml for feeds/pumping; kg, cm or degrees for measurements
	Unit      string
	Details   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the event's span when an end time was logged.
func (e *Event) Duration() time.Duration {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.Time)
}
