package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cradle/internal/db"
	"cradle/internal/metrics"
	"cradle/internal/models"
)

// SettingsPayload mirrors models.Settings with intervals in minutes.
type SettingsPayload struct {
	FeedingIntervalMin      int `json:"feeding_interval_min"`
	NightFeedingIntervalMin int `json:"night_feeding_interval_min"`
	PumpingDurationMin      int `json:"pumping_duration_min"`
	PumpingIntervalMin      int `json:"pumping_interval_min"`
	NightPumpingIntervalMin int `json:"night_pumping_interval_min"`

	BabyDaytimeStart   int `json:"baby_daytime_start"`
	BabyDaytimeEnd     int `json:"baby_daytime_end"`
	ParentDaytimeStart int `json:"parent_daytime_start"`
	ParentDaytimeEnd   int `json:"parent_daytime_end"`

	EnableFeedingReminder             bool `json:"enable_feeding_reminder"`
	EnablePumpingReminder             bool `json:"enable_pumping_reminder"`
	EnableFeedingNotification         bool `json:"enable_feeding_notification"`
	EnablePumpingNotification         bool `json:"enable_pumping_notification"`
	EnableOtherActivitiesNotification bool `json:"enable_other_activities_notification"`
}

// ProfileRequest is the body for creating or updating a profile.
type ProfileRequest struct {
	Name      string           `json:"name"`
	Nickname  string           `json:"nickname,omitempty"`
	BirthDate string           `json:"birth_date,omitempty"` // Format: YYYY-MM-DD
	Settings  *SettingsPayload `json:"settings,omitempty"`
}

// ProfileResponse is a profile in API responses.
type ProfileResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Nickname  string          `json:"nickname,omitempty"`
	BirthDate string          `json:"birth_date,omitempty"`
	Settings  SettingsPayload `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *ProfileRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", r.BirthDate); err != nil {
			return errors.New("invalid birth_date; expected YYYY-MM-DD")
		}
	}
	if r.Settings != nil {
		windows := [][2]int{
			{r.Settings.BabyDaytimeStart, r.Settings.BabyDaytimeEnd},
			{r.Settings.ParentDaytimeStart, r.Settings.ParentDaytimeEnd},
		}
		for _, win := range windows {
			if win[0] < 0 || win[0] > 24 || win[1] < 0 || win[1] > 24 {
				return errors.New("daytime hours must be within 0-24")
			}
			if win[0] >= win[1] {
				return errors.New("daytime start must be before daytime end")
			}
		}
	}
	return nil
}

func (r *ProfileRequest) apply(p *models.Profile) {
	p.Name = r.Name
	p.Nickname = r.Nickname
	if r.BirthDate != "" {
		p.BirthDate, _ = time.Parse("2006-01-02", r.BirthDate)
	}
	if r.Settings != nil {
		p.Settings = settingsFromPayload(r.Settings)
	}
}

func settingsFromPayload(s *SettingsPayload) models.Settings {
	return models.Settings{
		FeedingInterval:      time.Duration(s.FeedingIntervalMin) * time.Minute,
		NightFeedingInterval: time.Duration(s.NightFeedingIntervalMin) * time.Minute,
		PumpingDuration:      time.Duration(s.PumpingDurationMin) * time.Minute,
		PumpingInterval:      time.Duration(s.PumpingIntervalMin) * time.Minute,
		NightPumpingInterval: time.Duration(s.NightPumpingIntervalMin) * time.Minute,

		BabyDaytimeStart:   s.BabyDaytimeStart,
		BabyDaytimeEnd:     s.BabyDaytimeEnd,
		ParentDaytimeStart: s.ParentDaytimeStart,
		ParentDaytimeEnd:   s.ParentDaytimeEnd,

		EnableFeedingReminder:             s.EnableFeedingReminder,
		EnablePumpingReminder:             s.EnablePumpingReminder,
		EnableFeedingNotification:         s.EnableFeedingNotification,
		EnablePumpingNotification:         s.EnablePumpingNotification,
		EnableOtherActivitiesNotification: s.EnableOtherActivitiesNotification,
	}
}

func settingsToPayload(s models.Settings) SettingsPayload {
	return SettingsPayload{
		FeedingIntervalMin:      int(s.FeedingInterval / time.Minute),
		NightFeedingIntervalMin: int(s.NightFeedingInterval / time.Minute),
		PumpingDurationMin:      int(s.PumpingDuration / time.Minute),
		PumpingIntervalMin:      int(s.PumpingInterval / time.Minute),
		NightPumpingIntervalMin: int(s.NightPumpingInterval / time.Minute),

		BabyDaytimeStart:   s.BabyDaytimeStart,
		BabyDaytimeEnd:     s.BabyDaytimeEnd,
		ParentDaytimeStart: s.ParentDaytimeStart,
		ParentDaytimeEnd:   s.ParentDaytimeEnd,

		EnableFeedingReminder:             s.EnableFeedingReminder,
		EnablePumpingReminder:             s.EnablePumpingReminder,
		EnableFeedingNotification:         s.EnableFeedingNotification,
		EnablePumpingNotification:         s.EnablePumpingNotification,
		EnableOtherActivitiesNotification: s.EnableOtherActivitiesNotification,
	}
}

func profileResponse(p *models.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Nickname:  p.Nickname,
		Settings:  settingsToPayload(p.Settings),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if !p.BirthDate.IsZero() {
		resp.BirthDate = p.BirthDate.Format("2006-01-02")
	}
	return resp
}

// handleListProfiles returns all profiles.
// GET /api/profiles
func (s *HTTPServer) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_list")

	profiles, err := s.db.ListProfiles(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list profiles failed")
		writeError(w, http.StatusInternalServerError, "list profiles failed")
		return
	}

	resp := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, profileResponse(&profiles[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": resp})
}

// handleCreateProfile creates a profile with default settings unless the
// body overrides them.
// POST /api/profiles
func (s *HTTPServer) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_create")

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &models.Profile{Settings: models.DefaultSettings()}
	req.apply(p)

	if err := s.db.CreateProfile(r.Context(), p); err != nil {
		s.logger.Error().Err(err).Msg("create profile failed")
		writeError(w, http.StatusInternalServerError, "create profile failed")
		return
	}
	s.tracker.ProfileUpdated(p)

	writeJSON(w, http.StatusCreated, profileResponse(p))
}

// handleGetProfile returns one profile.
// GET /api/profiles/{id}
func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_get")

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(p))
}

// handleUpdateProfile rewrites a profile and refreshes its snapshot in
// the reminder engine.
// PUT /api/profiles/{id}
func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_update")

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}
	req.apply(p)

	if err := s.db.UpdateProfile(r.Context(), p); err != nil {
		writeProfileError(w, s, err)
		return
	}
	s.tracker.ProfileUpdated(p)

	writeJSON(w, http.StatusOK, profileResponse(p))
}

// handleDeleteProfile removes a profile, its events and its reminders.
// DELETE /api/profiles/{id}
func (s *HTTPServer) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_delete")

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}

	if err := s.db.DeleteProfile(r.Context(), p.ID); err != nil {
		writeProfileError(w, s, err)
		return
	}
	s.tracker.ProfileRemoved(p)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAssist fires an immediate "needs assistance" notification.
// POST /api/profiles/{id}/assist
func (s *HTTPServer) handleAssist(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_assist")

	s.tracker.RequestAssistant(r.PathValue("id"))
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
}

func writeProfileError(w http.ResponseWriter, s *HTTPServer, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	s.logger.Error().Err(err).Msg("profile operation failed")
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("profile operation failed: %v", err))
}
