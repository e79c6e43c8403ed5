package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cradle/internal/models"
)

func TestEventRowValues(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	end := start.Add(20 * time.Minute)
	e := &models.Event{
		Type:    models.EventNursing,
		Time:    start,
		EndTime: &end,
		Details: "left side",
	}

	values := eventRowValues(e)
	require.Len(t, values, len(logColumns))
	assert.Equal(t, "2024-03-01 09:30", values[0])
	assert.Equal(t, "Nursing", values[1])
	assert.Equal(t, "2024-03-01 09:50", values[2])
	assert.Equal(t, "left side", values[5])
}

func TestSheetNameTruncation(t *testing.T) {
	p := &models.Profile{Name: "A very long baby profile name that keeps going"}
	assert.Len(t, sheetName(p), 31)

	p = &models.Profile{Name: "Full Name", Nickname: "Ada"}
	assert.Equal(t, "Ada", sheetName(p))
}

func TestWriteEventLogRoundTrip(t *testing.T) {
	p := &models.Profile{ID: "p1", Name: "Ada"}
	events := []models.Event{
		{Type: models.EventBottleFeed, Time: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Amount: 120, Unit: "ml"},
		{Type: models.EventDiaper, Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEventLog(&buf, p, events))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Ada")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two events
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "Bottle feed", rows[1][1])
	assert.Equal(t, "Diaper change", rows[2][1])
}
