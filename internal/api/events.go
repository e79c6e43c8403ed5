package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cradle/internal/db"
	"cradle/internal/metrics"
	"cradle/internal/models"
)

// EventRequest is the body for logging or updating an event.
type EventRequest struct {
	ProfileID string  `json:"profile_id"`
	Type      string  `json:"type"`
	Time      string  `json:"time"`               // Format: RFC3339
	EndTime   string  `json:"end_time,omitempty"` // Format: RFC3339
	Amount    float64 `json:"amount,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Details   string  `json:"details,omitempty"`
}

// EventResponse is an event in API responses.
type EventResponse struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profile_id"`
	Type      string     `json:"type"`
	Time      time.Time  `json:"time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Amount    float64    `json:"amount,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	Details   string     `json:"details,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *EventRequest) parse(existing *models.Event) (*models.Event, error) {
	e := &models.Event{}
	if existing != nil {
		*e = *existing
	}

	typ := models.EventType(r.Type)
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}
	e.Type = typ

	if existing == nil {
		if r.ProfileID == "" {
			return nil, errors.New("profile_id is required")
		}
		e.ProfileID = r.ProfileID
	}

	t, err := time.Parse(time.RFC3339, r.Time)
	if err != nil {
		return nil, errors.New("invalid time; expected RFC3339")
	}
	e.Time = t

	e.EndTime = nil
	if r.EndTime != "" {
		end, err := time.Parse(time.RFC3339, r.EndTime)
		if err != nil {
			return nil, errors.New("invalid end_time; expected RFC3339")
		}
		if end.Before(t) {
			return nil, errors.New("end_time must not precede time")
		}
		e.EndTime = &end
	}

	if r.Amount < 0 {
		return nil, errors.New("amount must not be negative")
	}
	e.Amount = r.Amount
	e.Unit = r.Unit
	e.Details = r.Details
	return e, nil
}

func eventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		ProfileID: e.ProfileID,
		Type:      string(e.Type),
		Time:      e.Time,
		EndTime:   e.EndTime,
		Amount:    e.Amount,
		Unit:      e.Unit,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func eventListResponse(events []models.Event) map[string]any {
	resp := make([]EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventResponse(&events[i]))
	}
	return map[string]any{"events": resp, "count": len(resp)}
}

// handleFindEvents searches events. Query params: profile_id, type
// (comma separated), from, to (RFC3339), q (substring of details),
// limit.
// GET /api/events
func (s *HTTPServer) handleFindEvents(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("events_find")

	q := r.URL.Query()
	filter := db.EventFilter{
		ProfileID: q.Get("profile_id"),
		Text:      q.Get("q"),
	}

	if raw := q.Get("type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			typ := models.EventType(strings.TrimSpace(part))
			if !typ.Valid() {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event type %q", part))
				return
			}
			filter.Types = append(filter.Types, typ)
		}
	}
	for _, bound := range []struct {
		param string
		dst   *time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		if raw := q.Get(bound.param); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s; expected RFC3339", bound.param))
				return
			}
			*bound.dst = t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	events, err := s.db.FindEvents(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("find events failed")
		writeError(w, http.StatusInternalServerError, "find events failed")
		return
	}
	writeJSON(w, http.StatusOK, eventListResponse(events))
}

// handleCreateEvent logs a new event and feeds it to the reminder
// engine after the insert lands.
// POST /api/events
func (s *HTTPServer) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("events_create")

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	e, err := req.parse(nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.db.GetProfile(r.Context(), e.ProfileID); err != nil {
		writeProfileError(w, s, err)
		return
	}

	if err := s.db.CreateEvent(r.Context(), e); err != nil {
		s.logger.Error().Err(err).Msg("create event failed")
		writeError(w, http.StatusInternalServerError, "create event failed")
		return
	}
	metrics.IncEventLogged(string(e.Type))
	s.tracker.EventCreated(*e)

	writeJSON(w, http.StatusCreated, eventResponse(e))
}

// handleGetEvent returns one event.
// GET /api/events/{id}
func (s *HTTPServer) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("events_get")

	e, err := s.db.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEventError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse(e))
}

// handleUpdateEvent rewrites an event. The profile an event belongs to
// cannot change.
// PUT /api/events/{id}
func (s *HTTPServer) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("events_update")

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	existing, err := s.db.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEventError(w, s, err)
		return
	}
	e, err := req.parse(existing)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateEvent(r.Context(), e); err != nil {
		writeEventError(w, s, err)
		return
	}
	s.tracker.EventUpdated(*e)

	writeJSON(w, http.StatusOK, eventResponse(e))
}

// handleDeleteEvent removes an event and retires any reminder anchored
// to it.
// DELETE /api/events/{id}
func (s *HTTPServer) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("events_delete")

	e, err := s.db.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEventError(w, s, err)
		return
	}

	if err := s.db.DeleteEvent(r.Context(), e.ID); err != nil {
		writeEventError(w, s, err)
		return
	}
	metrics.IncEventDeleted()
	s.tracker.EventRemoved(*e)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeEventError(w http.ResponseWriter, s *HTTPServer, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	s.logger.Error().Err(err).Msg("event operation failed")
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("event operation failed: %v", err))
}
