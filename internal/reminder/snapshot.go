package reminder

import (
	"fmt"
	"hash/fnv"

	"cradle/internal/models"
)

// Snapshot is a denormalized copy of one profile's scheduling-relevant
// settings. The engine reads snapshots instead of profiles so the data
// layer can mutate profiles freely once the engine has been told.
type Snapshot struct {
	ProfileID string
	Handle    string
	models.Settings

	hash uint64
}

func snapshotOf(p *models.Profile) *Snapshot {
	s := &Snapshot{
		ProfileID: p.ID,
		Handle:    p.Handle(),
		Settings:  p.Settings,
	}
	s.hash = s.contentHash()
	return s
}

// contentHash covers every field that affects scheduling or message text.
func (s *Snapshot) contentHash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%d|%d|%d|%d|%d|%d|%d|%d|%t|%t|%t|%t|%t",
		s.ProfileID, s.Handle,
		s.FeedingInterval, s.NightFeedingInterval,
		s.PumpingDuration, s.PumpingInterval, s.NightPumpingInterval,
		s.BabyDaytimeStart, s.BabyDaytimeEnd,
		s.ParentDaytimeStart, s.ParentDaytimeEnd,
		s.EnableFeedingReminder, s.EnablePumpingReminder,
		s.EnableFeedingNotification, s.EnablePumpingNotification,
		s.EnableOtherActivitiesNotification)
	return h.Sum64()
}

// SnapshotCache holds the snapshot for every known profile. It is not
// safe for concurrent use on its own; the engine serializes access.
type SnapshotCache struct {
	snapshots map[string]*Snapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{snapshots: make(map[string]*Snapshot)}
}

// Upsert replaces the cached snapshot when the profile's relevant fields
// changed, and reports whether a replacement happened.
func (c *SnapshotCache) Upsert(p *models.Profile) bool {
	fresh := snapshotOf(p)
	if existing, ok := c.snapshots[p.ID]; ok && existing.hash == fresh.hash {
		return false
	}
	c.snapshots[p.ID] = fresh
	return true
}

func (c *SnapshotCache) Remove(profileID string) {
	delete(c.snapshots, profileID)
}

func (c *SnapshotCache) Get(profileID string) (*Snapshot, bool) {
	s, ok := c.snapshots[profileID]
	return s, ok
}

// FindByHandle returns the snapshot whose handle matches, if any.
func (c *SnapshotCache) FindByHandle(handle string) (*Snapshot, bool) {
	for _, s := range c.snapshots {
		if s.Handle == handle {
			return s, true
		}
	}
	return nil, false
}

func (c *SnapshotCache) Len() int {
	return len(c.snapshots)
}
