// Package api is the JSON HTTP surface of the tracker: profile and
// event CRUD, the daily log, search, trend charts, exports and the
// assistance button. Handlers write to the database first and only then
// push the change into the reminder engine.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"cradle/internal/db"
	"cradle/internal/google"
	"cradle/internal/models"
	"cradle/internal/stats"
)

// Tracker is the slice of the reminder engine the API pushes into,
// after each durable write.
type Tracker interface {
	ProfileUpdated(p *models.Profile)
	ProfileRemoved(p *models.Profile)
	EventCreated(ev models.Event)
	EventUpdated(ev models.Event)
	EventRemoved(ev models.Event)
	RequestAssistant(idOrHandle string)
}

// HTTPServer serves the tracker API.
type HTTPServer struct {
	db      *db.DB
	tracker Tracker
	stats   *stats.Service
	sheets  *google.SheetsService // nil when not configured
	logger  *zerolog.Logger
}

// NewHTTPServer wires the API. sheets may be nil.
func NewHTTPServer(database *db.DB, tracker Tracker, statsSvc *stats.Service, sheets *google.SheetsService, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		db:      database,
		tracker: tracker,
		stats:   statsSvc,
		sheets:  sheets,
		logger:  logger,
	}
}

// Router returns the API route table.
func (s *HTTPServer) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("POST /api/profiles", s.handleCreateProfile)
	mux.HandleFunc("GET /api/profiles/{id}", s.handleGetProfile)
	mux.HandleFunc("PUT /api/profiles/{id}", s.handleUpdateProfile)
	mux.HandleFunc("DELETE /api/profiles/{id}", s.handleDeleteProfile)

	mux.HandleFunc("GET /api/profiles/{id}/log", s.handleDailyLog)
	mux.HandleFunc("GET /api/profiles/{id}/trends", s.handleTrends)
	mux.HandleFunc("POST /api/profiles/{id}/assist", s.handleAssist)
	mux.HandleFunc("GET /api/profiles/{id}/export.xlsx", s.handleExportExcel)
	mux.HandleFunc("POST /api/profiles/{id}/sheets-sync", s.handleSheetsSync)

	mux.HandleFunc("GET /api/events", s.handleFindEvents)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	return mux
}

// Start runs the server until ctx is canceled.
func (s *HTTPServer) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Int("port", port).Msg("API server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
