// Package server exposes the trains service over plain JSON HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"renfe-backend/lib/scrapers/renfe"
	"renfe-backend/services/trains"
)

type Server struct {
	service trains.Service
}

func New(service trains.Service) Server {
	return Server{service: service}
}

// Routes builds the full router, CORS is wide open since the API only
// ever returns public schedule data.
func (s Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	router.Get("/health", s.handleHealth)
	router.Get("/trains", s.handleSearch)
	router.Get("/trains-flow", s.handleFlow)
	router.Get("/responses", s.handleResponses)
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response body", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps service errors onto the status codes the API
// promises: fixable queries get 422, upstream trouble gets 502.
func writeError(w http.ResponseWriter, err error) {
	var validationErr trains.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
}

func queryFromRequest(r *http.Request) (renfe.SearchQuery, error) {
	params := r.URL.Query()

	adults := 1
	if raw := params.Get("adults"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return renfe.SearchQuery{}, trains.NewValidationError("adults must be an integer, got " + strconv.Quote(raw))
		}
		adults = parsed
	}

	return renfe.SearchQuery{
		Origin:      params.Get("origin"),
		Destination: params.Get("destination"),
		DateOut:     params.Get("date_out"),
		DateReturn:  params.Get("date_return"),
		Adults:      adults,
	}, nil
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// trainsResponse echoes the query back around the parsed lists.
// DateReturn and TrainsReturn are null for one-way searches.
type trainsResponse struct {
	Origin       string        `json:"origin"`
	Destination  string        `json:"destination"`
	DateOut      string        `json:"date_out"`
	DateReturn   *string       `json:"date_return"`
	Adults       int           `json:"adults"`
	TrainsOut    []renfe.Train `json:"trains_out"`
	TrainsReturn []renfe.Train `json:"trains_return"`
}

func (s Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := queryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.service.SearchDirect(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	response := trainsResponse{
		Origin:       query.Origin,
		Destination:  query.Destination,
		DateOut:      query.DateOut,
		Adults:       query.Adults,
		TrainsOut:    result.Trains,
		TrainsReturn: result.ReturnTrains,
	}
	if query.DateReturn != "" {
		response.DateReturn = &query.DateReturn
	}
	writeJSON(w, http.StatusOK, response)
}

func (s Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	query, err := queryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.service.SearchFlow(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Error: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := s.service.ListResponses(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
