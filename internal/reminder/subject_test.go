package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cradle/internal/models"
)

func testSnapshot() *Snapshot {
	return snapshotOf(&models.Profile{
		ID:       "p1",
		Name:     "Ada Example",
		Nickname: "Ada",
		Settings: models.Settings{
			FeedingInterval:      3 * time.Hour,
			NightFeedingInterval: 4 * time.Hour,
			PumpingInterval:      3 * time.Hour,
			NightPumpingInterval: 5 * time.Hour,
			BabyDaytimeStart:     7,
			BabyDaytimeEnd:       19,
			ParentDaytimeStart:   7,
			ParentDaytimeEnd:     22,

			EnableFeedingReminder: true,
			EnablePumpingReminder: true,
		},
	})
}

func TestKindForEvent(t *testing.T) {
	kind, ok := KindForEvent(models.EventBottleFeed)
	require.True(t, ok)
	assert.Equal(t, KindFeeding, kind)

	kind, ok = KindForEvent(models.EventNursing)
	require.True(t, ok)
	assert.Equal(t, KindFeeding, kind)

	kind, ok = KindForEvent(models.EventPumping)
	require.True(t, ok)
	assert.Equal(t, KindPumping, kind)

	for _, et := range []models.EventType{
		models.EventDiaper, models.EventSleep, models.EventPlay,
		models.EventBath, models.EventMeasurement, models.EventMedicine,
		models.EventNote,
	} {
		_, ok := KindForEvent(et)
		assert.False(t, ok, "%s must not be reminder-eligible", et)
	}
}

func TestNextEventTimeDaytime(t *testing.T) {
	snap := testSnapshot()
	sub := &Subject{Kind: KindFeeding, EventTime: at(10, 0)}

	next, ok := sub.NextEventTime(snap, at(10, 5))
	require.True(t, ok)
	assert.Equal(t, at(13, 0), next)
}

func TestNextEventTimeNighttimeFallsBack(t *testing.T) {
	// Event at 18:00, evaluated at 21:30 (nighttime): the daytime
	// candidate (21:00) is rejected, the nighttime one (22:00) wins.
	snap := testSnapshot()
	sub := &Subject{Kind: KindFeeding, EventTime: at(18, 0)}

	next, ok := sub.NextEventTime(snap, at(21, 30))
	require.True(t, ok)
	assert.Equal(t, at(22, 0), next)
}

func TestNextEventTimeZeroIntervalDisables(t *testing.T) {
	snap := testSnapshot()
	snap.FeedingInterval = 0
	sub := &Subject{Kind: KindFeeding, EventTime: at(10, 0)}

	_, ok := sub.NextEventTime(snap, at(10, 5))
	assert.False(t, ok)

	// Nighttime evaluation still works off the night interval.
	next, ok := sub.NextEventTime(snap, at(23, 0))
	require.True(t, ok)
	assert.Equal(t, at(14, 0), next)
}

func TestNextEventTimeZeroNightIntervalDisables(t *testing.T) {
	snap := testSnapshot()
	snap.NightFeedingInterval = 0
	sub := &Subject{Kind: KindFeeding, EventTime: at(22, 0)}

	_, ok := sub.NextEventTime(snap, at(23, 0))
	assert.False(t, ok)
}

func TestNextEventTimePumpingReadsParentWindow(t *testing.T) {
	// 20:00 is night for the baby window (7-19) but day for the parent
	// window (7-22), so pumping still uses its daytime interval.
	snap := testSnapshot()
	sub := &Subject{Kind: KindPumping, EventTime: at(17, 0)}

	next, ok := sub.NextEventTime(snap, at(20, 0))
	require.True(t, ok)
	assert.Equal(t, at(20, 0), next)
}

func TestMessageContents(t *testing.T) {
	snap := testSnapshot()
	sub := &Subject{Kind: KindFeeding, EventTime: at(10, 0)}

	msg := sub.Message(snap, 30*time.Minute, at(12, 30))
	assert.Contains(t, msg, "Ada")
	assert.Contains(t, msg, "30 minutes")
	assert.Contains(t, msg, "2 hours 30 minutes")

	msg = sub.Message(snap, 0, at(13, 0))
	assert.Contains(t, msg, "due now")
	assert.Contains(t, msg, "3 hours")
}

func TestHumanDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "under a minute"},
		{time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{time.Hour, "1 hour"},
		{2*time.Hour + 15*time.Minute, "2 hours 15 minutes"},
		{3 * time.Hour, "3 hours"},
		{-45 * time.Minute, "45 minutes"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, humanDuration(c.d), "%s", c.d)
	}
}
