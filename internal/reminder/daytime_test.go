package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestIsDaytimeHalfOpenWindow(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		want := hour >= 7 && hour < 19
		got := isDaytime(at(hour, 0), at(hour, 0), 7, 19)
		assert.Equal(t, want, got, "hour %d", hour)
	}
}

func TestIsDaytimeBoundaryMinutes(t *testing.T) {
	// Minutes never push the hour over the boundary.
	assert.False(t, isDaytime(at(6, 59), at(6, 59), 7, 19))
	assert.True(t, isDaytime(at(7, 0), at(7, 0), 7, 19))
	assert.True(t, isDaytime(at(18, 59), at(18, 59), 7, 19))
	assert.False(t, isDaytime(at(19, 0), at(19, 0), 7, 19))
}

func TestIsDaytimeUsesClockNotInstant(t *testing.T) {
	// The instant argument is deliberately not consulted; only the
	// current clock decides. Pinned so a change here is a conscious one.
	now := at(10, 0)     // daytime
	instant := at(23, 0) // nighttime
	assert.True(t, isDaytime(now, instant, 7, 19))

	now = at(23, 0)
	instant = at(10, 0)
	assert.False(t, isDaytime(now, instant, 7, 19))
}
