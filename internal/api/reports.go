package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cradle/internal/db"
	"cradle/internal/export"
	"cradle/internal/metrics"
	"cradle/internal/models"
)

// handleDailyLog returns a profile's events for one calendar day,
// oldest first. Query param: day (YYYY-MM-DD, default today).
// GET /api/profiles/{id}/log
func (s *HTTPServer) handleDailyLog(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_log")

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}

	day := time.Now()
	if raw := r.URL.Query().Get("day"); raw != "" {
		day, err = time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day; expected YYYY-MM-DD")
			return
		}
	}

	events, err := s.db.EventsForDay(r.Context(), p.ID, day)
	if err != nil {
		s.logger.Error().Err(err).Msg("daily log failed")
		writeError(w, http.StatusInternalServerError, "daily log failed")
		return
	}

	resp := eventListResponse(events)
	resp["day"] = day.Format("2006-01-02")
	writeJSON(w, http.StatusOK, resp)
}

// handleTrends returns the per-day aggregate series for the charts.
// Query param: days (default 14).
// GET /api/profiles/{id}/trends
func (s *HTTPServer) handleTrends(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_trends")

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 0 || days > 365 {
			writeError(w, http.StatusBadRequest, "invalid days; expected 1-365")
			return
		}
	}

	series, err := s.stats.TrendSeries(r.Context(), p.ID, days, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("trend series failed")
		writeError(w, http.StatusInternalServerError, "trend series failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile_id": p.ID, "series": series})
}

// handleExportExcel streams the profile's full event log as an Excel
// workbook.
// GET /api/profiles/{id}/export.xlsx
func (s *HTTPServer) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_export")

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}

	events, err := s.exportEvents(r, p.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("export query failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteEventLog(&buf, p, events); err != nil {
		s.logger.Error().Err(err).Msg("export render failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Handle()+"-log.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleSheetsSync mirrors the profile's event log into the configured
// Google spreadsheet. Returns 503 when Sheets is not configured.
// POST /api/profiles/{id}/sheets-sync
func (s *HTTPServer) handleSheetsSync(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("profiles_sheets_sync")

	if s.sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "Google Sheets sync is not configured")
		return
	}

	p, err := s.db.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeProfileError(w, s, err)
		return
	}

	events, err := s.exportEvents(r, p.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("sheets sync query failed")
		writeError(w, http.StatusInternalServerError, "sheets sync failed")
		return
	}

	if err := s.sheets.SyncEvents(r.Context(), p.Handle(), events); err != nil {
		s.logger.Error().Err(err).Msg("sheets sync failed")
		writeError(w, http.StatusBadGateway, "sheets sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rows": len(events)})
}

// exportEvents returns a profile's full log, oldest first.
func (s *HTTPServer) exportEvents(r *http.Request, profileID string) ([]models.Event, error) {
	events, err := s.db.FindEvents(r.Context(), db.EventFilter{ProfileID: profileID})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
