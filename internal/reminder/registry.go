package reminder

import (
	"sort"

	"cradle/internal/models"
)

// Registry is the authoritative map of live reminders, keyed by the
// anchoring event's ID. Invariant: at most one entry per (profile, kind),
// the one anchored to the chronologically latest event of that kind.
// Not safe for concurrent use on its own; the engine serializes access.
type Registry struct {
	subjects map[string]*Subject
}

func NewRegistry() *Registry {
	return &Registry{subjects: make(map[string]*Subject)}
}

// EventCreated registers a freshly logged event. Non-eligible event
// types are ignored.
func (r *Registry) EventCreated(ev models.Event) {
	kind, ok := KindForEvent(ev.Type)
	if !ok {
		return
	}
	r.reconcile(&Subject{
		EventID:   ev.ID,
		ProfileID: ev.ProfileID,
		Kind:      kind,
		EventTime: ev.Time,
	})
}

// EventUpdated applies an edit to an already-logged event. When the
// edited event is the one currently tracked, its timestamp is adjusted in
// place and the stage history reset; either way reconciliation re-settles
// which event is the latest of its kind.
func (r *Registry) EventUpdated(ev models.Event) {
	kind, ok := KindForEvent(ev.Type)
	if !ok {
		return
	}

	incoming := r.subjects[ev.ID]
	if incoming != nil {
		if !incoming.EventTime.Equal(ev.Time) {
			incoming.EventTime = ev.Time
			incoming.LastNotified = nil
		}
	} else {
		incoming = &Subject{
			EventID:   ev.ID,
			ProfileID: ev.ProfileID,
			Kind:      kind,
			EventTime: ev.Time,
		}
	}
	r.reconcile(incoming)
}

// EventRemoved drops the reminder anchored to the event, if any.
func (r *Registry) EventRemoved(eventID string) {
	delete(r.subjects, eventID)
}

// ProfileRemoved drops every reminder belonging to the profile.
func (r *Registry) ProfileRemoved(profileID string) {
	for id, s := range r.subjects {
		if s.ProfileID == profileID {
			delete(r.subjects, id)
		}
	}
}

// Live returns the tracked subject for a (profile, kind), if any.
func (r *Registry) Live(profileID string, kind Kind) (*Subject, bool) {
	for _, s := range r.subjects {
		if s.ProfileID == profileID && s.Kind == kind {
			return s, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	return len(r.subjects)
}

// reconcile enforces the single-live-reminder invariant after a create
// or update: of all entries sharing the incoming subject's (profile,
// kind), only the latest-by-timestamp survives. An incoming subject that
// is newer than the survivor replaces it, inheriting its LastNotified so
// a timeline that already had later notice is not re-notified. An
// incoming subject that is not newer is discarded.
func (r *Registry) reconcile(incoming *Subject) {
	var peers []*Subject
	for _, s := range r.subjects {
		if s.ProfileID == incoming.ProfileID && s.Kind == incoming.Kind {
			peers = append(peers, s)
		}
	}
	sort.Slice(peers, func(i, j int) bool {
		return peers[i].EventTime.After(peers[j].EventTime)
	})

	var latest *Subject
	if len(peers) > 0 {
		latest = peers[0]
		for _, stale := range peers[1:] {
			delete(r.subjects, stale.EventID)
		}
	}

	switch {
	case latest == nil:
		r.subjects[incoming.EventID] = incoming
	case latest.EventID == incoming.EventID:
		// Update of the tracked event; already in the map.
	case incoming.EventTime.After(latest.EventTime):
		incoming.LastNotified = latest.LastNotified
		delete(r.subjects, latest.EventID)
		r.subjects[incoming.EventID] = incoming
	}
}
