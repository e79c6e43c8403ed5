package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cradle/internal/db"
	"cradle/internal/models"
	"cradle/internal/stats"
)

type trackerCall struct {
	method string
	arg    string
}

// mockTracker records contract calls so tests can assert the
// write-then-notify ordering without a real engine.
type mockTracker struct {
	mu    sync.Mutex
	calls []trackerCall
}

func (m *mockTracker) record(method, arg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, trackerCall{method: method, arg: arg})
}

func (m *mockTracker) ProfileUpdated(p *models.Profile)   { m.record("ProfileUpdated", p.ID) }
func (m *mockTracker) ProfileRemoved(p *models.Profile)   { m.record("ProfileRemoved", p.ID) }
func (m *mockTracker) EventCreated(ev models.Event)       { m.record("EventCreated", ev.ID) }
func (m *mockTracker) EventUpdated(ev models.Event)       { m.record("EventUpdated", ev.ID) }
func (m *mockTracker) EventRemoved(ev models.Event)       { m.record("EventRemoved", ev.ID) }
func (m *mockTracker) RequestAssistant(idOrHandle string) { m.record("RequestAssistant", idOrHandle) }

func (m *mockTracker) last() trackerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return trackerCall{}
	}
	return m.calls[len(m.calls)-1]
}

func (m *mockTracker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestServer(t *testing.T) (*httptest.Server, *db.DB, *mockTracker) {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := zerolog.Nop()
	tracker := &mockTracker{}
	srv := NewHTTPServer(database, tracker, stats.NewService(database, &logger), nil, &logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, database, tracker
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createTestProfile(t *testing.T, ts *httptest.Server) ProfileResponse {
	t.Helper()
	var created ProfileResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/profiles", ProfileRequest{
		Name:     "Ada Lovelace",
		Nickname: "Ada",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return created
}

func TestProfileLifecycle(t *testing.T) {
	ts, _, tracker := newTestServer(t)

	created := createTestProfile(t, ts)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ada", created.Nickname)
	assert.Equal(t, 180, created.Settings.FeedingIntervalMin)
	assert.True(t, created.Settings.EnableFeedingReminder)
	assert.Equal(t, trackerCall{"ProfileUpdated", created.ID}, tracker.last())

	var fetched ProfileResponse
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/profiles/"+created.ID, nil, &fetched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, fetched.ID)

	settings := created.Settings
	settings.FeedingIntervalMin = 150
	var updated ProfileResponse
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/profiles/"+created.ID, ProfileRequest{
		Name:     "Ada Lovelace",
		Nickname: "Adders",
		Settings: &settings,
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 150, updated.Settings.FeedingIntervalMin)
	assert.Equal(t, "Adders", updated.Nickname)

	var list struct {
		Profiles []ProfileResponse `json:"profiles"`
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/profiles", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list.Profiles, 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/profiles/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, trackerCall{"ProfileRemoved", created.ID}, tracker.last())

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/profiles/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileValidation(t *testing.T) {
	ts, _, tracker := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/profiles", ProfileRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad := SettingsPayload{BabyDaytimeStart: 19, BabyDaytimeEnd: 7, ParentDaytimeStart: 7, ParentDaytimeEnd: 22}
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/profiles", ProfileRequest{
		Name:     "Ada",
		Settings: &bad,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/profiles", ProfileRequest{
		Name:      "Ada",
		BirthDate: "31-12-2023",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Zero(t, tracker.count(), "rejected writes must not reach the engine")
}

func TestEventLifecycle(t *testing.T) {
	ts, _, tracker := newTestServer(t)
	profile := createTestProfile(t, ts)

	eventTime := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	var created EventResponse
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", EventRequest{
		ProfileID: profile.ID,
		Type:      "bottle_feed",
		Time:      eventTime.Format(time.RFC3339),
		Amount:    120,
		Unit:      "ml",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, trackerCall{"EventCreated", created.ID}, tracker.last())

	var fetched EventResponse
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/events/"+created.ID, nil, &fetched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, eventTime.Equal(fetched.Time))
	assert.Equal(t, 120.0, fetched.Amount)

	var updated EventResponse
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/events/"+created.ID, EventRequest{
		Type:   "nursing",
		Time:   eventTime.Add(15 * time.Minute).Format(time.RFC3339),
		Amount: 0,
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nursing", updated.Type)
	assert.Equal(t, profile.ID, updated.ProfileID, "profile binding survives updates")
	assert.Equal(t, trackerCall{"EventUpdated", created.ID}, tracker.last())

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/events/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, trackerCall{"EventRemoved", created.ID}, tracker.last())

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/events/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)
	profile := createTestProfile(t, ts)

	cases := []struct {
		name string
		req  EventRequest
	}{
		{"unknown type", EventRequest{ProfileID: profile.ID, Type: "feeding", Time: time.Now().Format(time.RFC3339)}},
		{"missing profile", EventRequest{Type: "bottle_feed", Time: time.Now().Format(time.RFC3339)}},
		{"bad time", EventRequest{ProfileID: profile.ID, Type: "bottle_feed", Time: "10:30"}},
		{"end before start", EventRequest{
			ProfileID: profile.ID,
			Type:      "sleep",
			Time:      "2024-03-10T12:00:00Z",
			EndTime:   "2024-03-10T11:00:00Z",
		}},
		{"negative amount", EventRequest{
			ProfileID: profile.ID,
			Type:      "bottle_feed",
			Time:      "2024-03-10T12:00:00Z",
			Amount:    -10,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", tc.req, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", EventRequest{
		ProfileID: "no-such-profile",
		Type:      "bottle_feed",
		Time:      time.Now().Format(time.RFC3339),
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFindEventsFilters(t *testing.T) {
	ts, _, _ := newTestServer(t)
	profile := createTestProfile(t, ts)

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	seed := []EventRequest{
		{ProfileID: profile.ID, Type: "bottle_feed", Time: base.Format(time.RFC3339), Amount: 100},
		{ProfileID: profile.ID, Type: "diaper", Time: base.Add(time.Hour).Format(time.RFC3339)},
		{ProfileID: profile.ID, Type: "nursing", Time: base.Add(2 * time.Hour).Format(time.RFC3339), Details: "left side"},
	}
	for _, req := range seed {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", req, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var found struct {
		Events []EventResponse `json:"events"`
		Count  int             `json:"count"`
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/events?profile_id="+profile.ID, nil, &found)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, found.Count)
	assert.Equal(t, "nursing", found.Events[0].Type, "newest first")

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/events?type=bottle_feed,nursing", nil, &found)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, found.Count)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/events?q=left", nil, &found)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "nursing", found.Events[0].Type)

	url := fmt.Sprintf("%s/api/events?from=%s&to=%s", ts.URL,
		base.Add(30*time.Minute).Format(time.RFC3339),
		base.Add(90*time.Minute).Format(time.RFC3339))
	resp = doJSON(t, http.MethodGet, url, nil, &found)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "diaper", found.Events[0].Type)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/events?limit=2", nil, &found)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, found.Count)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/events?type=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDailyLog(t *testing.T) {
	ts, _, _ := newTestServer(t)
	profile := createTestProfile(t, ts)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)
	for _, hour := range []int{22, 8, 14} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", EventRequest{
			ProfileID: profile.ID,
			Type:      "bottle_feed",
			Time:      day.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339),
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var log struct {
		Day    string          `json:"day"`
		Events []EventResponse `json:"events"`
		Count  int             `json:"count"`
	}
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/profiles/"+profile.ID+"/log?day=2024-03-10", nil, &log)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-03-10", log.Day)
	require.Equal(t, 3, log.Count)
	assert.True(t, log.Events[0].Time.Before(log.Events[1].Time), "oldest first")

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/profiles/"+profile.ID+"/log?day=03-10", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrendsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)
	profile := createTestProfile(t, ts)

	now := time.Now()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", EventRequest{
		ProfileID: profile.ID,
		Type:      "bottle_feed",
		Time:      now.Format(time.RFC3339),
		Amount:    90,
		Unit:      "ml",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var trends struct {
		ProfileID string           `json:"profile_id"`
		Series    []stats.DayPoint `json:"series"`
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/profiles/"+profile.ID+"/trends?days=7", nil, &trends)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, trends.Series, 7)
	today := trends.Series[6]
	assert.Equal(t, now.Format("2006-01-02"), today.Day)
	assert.Equal(t, 1, today.FeedCount)
	assert.Equal(t, 90.0, today.FeedVolumeML)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/profiles/"+profile.ID+"/trends?days=999", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssistEndpoint(t *testing.T) {
	ts, _, tracker := newTestServer(t)
	profile := createTestProfile(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/profiles/"+profile.ID+"/assist", nil, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, trackerCall{"RequestAssistant", profile.ID}, tracker.last())
}

func TestExportExcelEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)
	profile := createTestProfile(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/events", EventRequest{
		ProfileID: profile.ID,
		Type:      "bottle_feed",
		Time:      time.Now().Format(time.RFC3339),
		Amount:    100,
		Unit:      "ml",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/profiles/"+profile.ID+"/export.xlsx", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "Ada-log.xlsx")
}

func TestSheetsSyncUnconfigured(t *testing.T) {
	ts, _, _ := newTestServer(t)
	profile := createTestProfile(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/profiles/"+profile.ID+"/sheets-sync", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
