// Package api exposes the engine's read-side HTTP surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"budget-allocation-engine/internal/bankcal"
	"budget-allocation-engine/pkg/errors"
	"budget-allocation-engine/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds the handler dependencies.
type Server struct {
	calendar *bankcal.Calendar
	logger   logger.Logger
}

// NewServer creates an API server over the given calendar.
func NewServer(calendar *bankcal.Calendar, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Server{
		calendar: calendar,
		logger:   log.WithComponent("api"),
	}
}

// Router builds the route tree. Authentication is the caller's concern:
// any middlewares passed here run before the engine's handlers.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	for _, m := range middlewares {
		r.Use(m)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/api/non-bank-days", s.handleNonBankDays)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// nonBankDaysResponse is the wire shape of the range query.
type nonBankDaysResponse struct {
	Country string   `json:"country"`
	Dates   []string `json:"dates"`
}

func (s *Server) handleNonBankDays(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from, err := parseDateParam(query.Get("from"), "from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseDateParam(query.Get("to"), "to")
	if err != nil {
		s.writeError(w, err)
		return
	}
	country := bankcal.NormalizeCountry(query.Get("country"))
	if country == "" {
		country = "DK"
	}

	days, err := s.calendar.NonBankDays(from, to, country)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Empty ranges still serialize as [], not null.
	dates := make([]string, 0, len(days))
	for _, day := range days {
		dates = append(dates, day.Format("2006-01-02"))
	}
	writeJSON(w, http.StatusOK, nonBankDaysResponse{Country: country, Dates: dates})
}

func parseDateParam(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.ValidationError(errors.CodeMissingField, name, "")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		// Malformed dates are unprocessable, not merely invalid.
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, name, raw)
	}
	return date, nil
}

// errorResponse is the wire shape of every error payload.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	engineErr, ok := errors.AsEngineError(err)
	if !ok {
		engineErr = errors.InternalError("http request", err)
	}

	status := engineErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	} else {
		s.logger.WithField("code", string(engineErr.Code)).Debug("Request rejected")
	}

	var payload errorResponse
	payload.Error.Code = string(engineErr.Code)
	payload.Error.Message = engineErr.Message
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request with method, path and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("Handled request")
	})
}
