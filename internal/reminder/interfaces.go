// Package reminder is the in-memory event-reminder scheduling engine.
//
// For every profile it tracks the most recent feeding and pumping event,
// derives when the next one is expected from the profile's day/night
// interval settings, and fires staged advance notices (30/15/5 minutes
// before and "now") exactly once per stage through a notification
// gateway. State lives only in memory; the durable data layer feeds the
// engine after each successful write.
package reminder

import "time"

// Notifier delivers a message on behalf of a sender. Implementations are
// fire-and-forget: failures are logged and swallowed, never returned to
// the scheduler.
type Notifier interface {
	Notify(sender, message string)
}

// Logger interface for logging.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

// TickInterval is how often the scheduler scans live reminders.
const TickInterval = 5 * time.Second

// stages are the advance-notice lead times, walked in ascending order
// each tick. The first applicable stage wins.
var stages = []time.Duration{0, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute}
