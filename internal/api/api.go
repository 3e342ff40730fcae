// Package api serves the diary over JSON for the web front end.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pathakanu/vitalTrack/internal/analysis"
	"github.com/pathakanu/vitalTrack/internal/metrics"
	"github.com/pathakanu/vitalTrack/internal/model"
	"github.com/pathakanu/vitalTrack/internal/store"
)

const (
	recentActivityLimit = 5
	maxTrendWindowDays  = 366
	maxImportBytes      = 32 << 20
)

// Server holds the handlers for the JSON API.
type Server struct {
	store      *store.Store
	logger     *log.Logger
	metrics    *metrics.Metrics
	location   *time.Location
	windowDays int
	now        func() time.Time
}

// New creates a Server. windowDays is the default trend window.
func New(st *store.Store, logger *log.Logger, location *time.Location, windowDays int) *Server {
	if location == nil {
		location = time.Local
	}
	return &Server{
		store:      st,
		logger:     logger,
		metrics:    metrics.Default(),
		location:   location,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/meals", s.listMeals)
	mux.HandleFunc("POST /api/meals", s.createMeal)
	mux.HandleFunc("GET /api/symptoms", s.listSymptoms)
	mux.HandleFunc("POST /api/symptoms", s.createSymptom)
	mux.HandleFunc("GET /api/symptom-types", s.symptomTypes)
	mux.HandleFunc("GET /api/dashboard", s.dashboard)
	mux.HandleFunc("GET /api/trends", s.trends)
	mux.HandleFunc("GET /api/correlations", s.correlations)
	mux.HandleFunc("GET /api/export", s.export)
	mux.HandleFunc("POST /api/import", s.importData)
	mux.HandleFunc("DELETE /api/data", s.clearData)
	mux.HandleFunc("GET /api/settings", s.getSettings)
	mux.HandleFunc("PUT /api/settings", s.putSettings)
	mux.Handle("GET /metrics", metrics.Handler())
}

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := s.store.Meals(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func (s *Server) createMeal(w http.ResponseWriter, r *http.Request) {
	var in store.MealInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	meal, err := s.store.AddMeal(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

func (s *Server) listSymptoms(w http.ResponseWriter, r *http.Request) {
	symptoms, err := s.store.Symptoms(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, symptoms)
}

func (s *Server) createSymptom(w http.ResponseWriter, r *http.Request) {
	var in store.SymptomInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	symptom, err := s.store.AddSymptom(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, symptom)
}

type symptomTypesResponse struct {
	Vocabulary []model.SymptomType `json:"vocabulary"`
	Logged     []string            `json:"logged"`
}

func (s *Server) symptomTypes(w http.ResponseWriter, r *http.Request) {
	symptoms, err := s.store.Symptoms(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, symptomTypesResponse{
		Vocabulary: model.SymptomVocabulary(),
		Logged:     analysis.SymptomTypes(symptoms),
	})
}

type dashboardResponse struct {
	analysis.Stats
	Recent []analysis.ActivityItem `json:"recent"`
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Stats:  analysis.DailyStats(snap.Meals, snap.Symptoms, ref),
		Recent: analysis.RecentActivity(snap.Meals, snap.Symptoms, recentActivityLimit),
	})
}

func (s *Server) trends(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	days := s.windowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxTrendWindowDays {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("days must be between 1 and %d", maxTrendWindowDays)})
			return
		}
		days = parsed
	}

	symptoms, err := s.store.Symptoms(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	trend := analysis.ComputeTrend(symptoms, days, ref)
	s.metrics.ObserveAnalysis("trend", start)
	writeJSON(w, http.StatusOK, trend)
}

type correlationsResponse struct {
	Symptom     string                   `json:"symptom"`
	Occurrences int                      `json:"occurrences"`
	Triggers    []analysis.TriggerResult `json:"triggers"`
}

func (s *Server) correlations(w http.ResponseWriter, r *http.Request) {
	symptomType := strings.TrimSpace(r.URL.Query().Get("symptom"))
	if symptomType == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "symptom query parameter is required"})
		return
	}

	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	triggers := analysis.ComputeCorrelations(symptomType, snap.Meals, snap.Symptoms)
	s.metrics.ObserveAnalysis("correlation", start)
	writeJSON(w, http.StatusOK, correlationsResponse{
		Symptom:     symptomType,
		Occurrences: analysis.Occurrences(symptomType, snap.Symptoms),
		Triggers:    triggers,
	})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.store.Export(r.Context(), &buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", store.ExportFileName(s.now().In(s.location))))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Printf("api: write export: %v", err)
	}
}

type importResponse struct {
	Meals    int `json:"meals"`
	Symptoms int `json:"symptoms"`
}

func (s *Server) importData(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Meals: len(doc.Meals), Symptoms: len(doc.Symptoms)})
}

func (s *Server) clearData(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var in model.Settings
	if !s.decodeBody(w, r, &in) {
		return
	}
	settings, err := s.store.SetTheme(r.Context(), in.Theme)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// reference resolves the analysis instant: the "at" query parameter when
// given, otherwise the current time in the configured zone.
func (s *Server) reference(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return s.now().In(s.location), true
	}
	at, ok := model.ParseTimestampIn(raw, s.location)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("cannot parse at=%q", raw)})
		return time.Time{}, false
	}
	return at.In(s.location), true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON: " + err.Error()})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *store.ValidationError
		ferr *store.FormatError
		merr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &ferr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &merr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "import document too large"})
	default:
		s.logger.Printf("api: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
