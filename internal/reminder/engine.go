package reminder

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cradle/internal/models"
)

// Engine owns the live-reminder registry and the snapshot cache, and
// runs the periodic tick that fires staged advance notices. The data
// layer pushes mutations in through the Profile*/Event* methods after
// each durable write; one mutex serializes those against the tick, so
// handlers and tick bodies never interleave.
type Engine struct {
	mu        sync.Mutex
	registry  *Registry
	snapshots *SnapshotCache
	notifier  Notifier
	logger    Logger
	metrics   *Metrics

	now func() time.Time

	ticking atomic.Bool

	lifecycle sync.Mutex
	running   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(notifier Notifier, logger Logger, metrics *Metrics) *Engine {
	return &Engine{
		registry:  NewRegistry(),
		snapshots: NewSnapshotCache(),
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.lifecycle.Lock()
	if e.running {
		e.lifecycle.Unlock()
		return
	}
	e.running = true
	e.lifecycle.Unlock()

	e.wg.Add(1)
	go e.loop()

	e.logger.Info("reminder engine started", "tick_interval", TickInterval)
}

// Stop stops the tick loop. An in-flight tick finishes; none is aborted.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	if !e.running {
		e.lifecycle.Unlock()
		return
	}
	e.running = false
	e.lifecycle.Unlock()

	close(e.stopCh)
	e.wg.Wait()

	e.logger.Info("reminder engine stopped")
}

func (e *Engine) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// ProfileUpdated refreshes the profile's snapshot after a durable
// create or update.
func (e *Engine) ProfileUpdated(p *models.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshots.Upsert(p) {
		e.logger.Debug("profile snapshot refreshed", "profile_id", p.ID)
	}
}

// ProfileRemoved drops the profile's snapshot and every reminder that
// belonged to it.
func (e *Engine) ProfileRemoved(p *models.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshots.Remove(p.ID)
	e.registry.ProfileRemoved(p.ID)
	e.metrics.setLive(e.registry.Len())
}

// EventCreated registers a freshly persisted event and, when the profile
// opted in, broadcasts an immediate activity notification. Non-eligible
// event types are still broadcast but never scheduled.
func (e *Engine) EventCreated(ev models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.EventCreated(ev)
	e.metrics.setLive(e.registry.Len())
	e.broadcastActivity(ev)
}

// EventUpdated applies a durable edit to the registry.
func (e *Engine) EventUpdated(ev models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.EventUpdated(ev)
	e.metrics.setLive(e.registry.Len())
}

// EventRemoved drops the reminder anchored to the deleted event, if any.
func (e *Engine) EventRemoved(ev models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.EventRemoved(ev.ID)
	e.metrics.setLive(e.registry.Len())
}

// RequestAssistant sends an immediate "needs assistance" notification for
// a profile, addressed by ID or by handle, bypassing scheduling.
func (e *Engine) RequestAssistant(idOrHandle string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handle := idOrHandle
	if snap, ok := e.snapshots.Get(idOrHandle); ok {
		handle = snap.Handle
	} else if snap, ok := e.snapshots.FindByHandle(idOrHandle); ok {
		handle = snap.Handle
	}

	e.notifier.Notify(handle, fmt.Sprintf("%s needs assistance", handle))
	e.logger.Info("assistance requested", "handle", handle)
}

// broadcastActivity sends an "activity logged" notice when the matching
// per-profile toggle is on. Caller holds the mutex.
func (e *Engine) broadcastActivity(ev models.Event) {
	snap, ok := e.snapshots.Get(ev.ProfileID)
	if !ok {
		return
	}

	var enabled bool
	switch family, _ := ev.Type.Family(); family {
	case models.FamilyFeeding:
		enabled = snap.EnableFeedingNotification
	case models.FamilyPumping:
		enabled = snap.EnablePumpingNotification
	default:
		enabled = snap.EnableOtherActivitiesNotification
	}
	if !enabled {
		return
	}

	msg := fmt.Sprintf("%s logged for %s at %s",
		ev.Type.Label(), snap.Handle, ev.Time.Format("15:04"))
	e.notifier.Notify(snap.Handle, msg)
	e.metrics.incActivity()
}

// stageOutcome classifies a subject's stage walk for one tick.
type stageOutcome int

const (
	// stagePending: every remaining stage lies in the future.
	stagePending stageOutcome = iota
	// stageDue: this stage's moment has arrived and was not yet notified.
	stageDue
	// stageAlreadyNotified: this stage (and every shorter one) was handled.
	stageAlreadyNotified
	// stageUnreachable: the interval is too short for this stage to fit
	// between the event and the next one.
	stageUnreachable
)

// nextStage walks the stage table in ascending lead-time order and
// returns the first stage that decides the subject's fate this tick.
func nextStage(sub *Subject, next, now time.Time) (time.Duration, stageOutcome) {
	for _, step := range stages {
		remindAt := next.Add(-step)
		if !remindAt.After(sub.EventTime) {
			return step, stageUnreachable
		}
		if sub.LastNotified != nil && !sub.LastNotified.Before(remindAt) {
			return step, stageAlreadyNotified
		}
		if remindAt.After(now) {
			continue
		}
		return step, stageDue
	}
	return 0, stagePending
}

// Tick scans every live reminder once. Overlapping invocations are
// collapsed: if the previous tick is still running this one is skipped.
func (e *Engine) Tick() {
	if !e.ticking.CompareAndSwap(false, true) {
		return
	}
	defer e.ticking.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	now := e.now()
	for _, sub := range e.registry.subjects {
		e.checkSubject(sub, now)
	}
	e.metrics.observeTick(time.Since(start))
}

// checkSubject evaluates one subject. A panic here must not take down
// the rest of the tick.
func (e *Engine) checkSubject(sub *Subject, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("reminder check panicked",
				"event_id", sub.EventID,
				"profile_id", sub.ProfileID,
				"panic", r)
		}
	}()

	snap, ok := e.snapshots.Get(sub.ProfileID)
	if !ok {
		// Profile not cached yet, or racing a removal. Safe to skip;
		// ProfileRemoved cleans the registry up.
		return
	}

	next, ok := sub.NextEventTime(snap, now)
	if !ok || next.Before(now) {
		return
	}

	step, outcome := nextStage(sub, next, now)
	if outcome != stageDue {
		return
	}

	if sub.notifyEnabled(snap) {
		e.notifier.Notify(snap.Handle, sub.Message(snap, step, now))
		e.metrics.incFired(sub.Kind, step)
		e.logger.Info("reminder fired",
			"kind", string(sub.Kind),
			"profile_id", sub.ProfileID,
			"stage", step.String())
	}

	// Marked even when the preference is off, so toggling it on later
	// does not replay stages that already passed.
	t := now
	sub.LastNotified = &t
}
