// Package api is the thin HTTP surface over the prediction service. It
// validates request shapes, maps the service's error kinds to status codes,
// and formats JSON; all domain logic stays in the service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dugout/prediction/internal/predictor"
	"dugout/prediction/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Server serves the prediction query API.
type Server struct {
	svc  *service.Service
	http *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(svc *service.Service, port int) *Server {
	s := &Server{svc: svc}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/historical", s.handleHistorical).Methods(http.MethodGet)
	r.HandleFunc("/ranking", s.handleRanking).Methods(http.MethodGet)
	r.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("Starting API server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type predictRequest struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

type predictResponse struct {
	Team1          string  `json:"team1"`
	Team2          string  `json:"team2"`
	WinProbability float64 `json:"win_probability"`
	Message        string  `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "KBO win probability prediction API",
		"usage":   "POST /predict with {\"team1\": ..., \"team2\": ...}",
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Team1 == "" || req.Team2 == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: `both team names are required, e.g. {"team1": "LG", "team2": "Samsung"}`,
		})
		return
	}

	prob, err := s.svc.Query(r.Context(), req.Team1, req.Team2)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Team1:          req.Team1,
		Team2:          req.Team2,
		WinProbability: prob,
		Message:        fmt.Sprintf("%s is predicted to beat %s with a %.2f%% win probability", req.Team1, req.Team2, prob),
	})
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	probs, err := s.svc.HistoricalProbabilities(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list historical probabilities")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load historical data"})
		return
	}

	type row struct {
		Team1       string  `json:"team1"`
		Team2       string  `json:"team2"`
		Probability float64 `json:"probability"`
		Date        string  `json:"date"`
	}
	out := make([]row, 0, len(probs))
	for _, p := range probs {
		out = append(out, row{
			Team1:       p.Team1,
			Team2:       p.Team2,
			Probability: p.Probability,
			Date:        p.CreatedDate.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	ranking, err := s.svc.CurrentRanking(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load current ranking")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load ranking"})
		return
	}

	type row struct {
		Team  string  `json:"team"`
		Rank  int     `json:"rank"`
		Score float64 `json:"score"`
		Date  string  `json:"date"`
	}
	out := make([]row, 0, len(ranking))
	for _, e := range ranking {
		out = append(out, row{
			Team:  e.Team,
			Rank:  e.Rank,
			Score: e.Score,
			Date:  e.CreatedDate.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.svc.ForceRefresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
	case errors.Is(err, service.ErrRefreshRunning):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a refresh is already running"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("refresh failed: %v", err)})
	}
}

// writeQueryError maps the service's error taxonomy to HTTP statuses.
// Domain errors are the caller's problem; everything else is ours.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	var unknown *predictor.UnknownTeamError
	switch {
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("%q is not a valid team name (valid teams: %v)", unknown.Name, unknown.ValidTeams),
		})
	case errors.Is(err, predictor.ErrSameTeam):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "cannot predict a win probability between a team and itself",
		})
	case errors.Is(err, service.ErrNotInitialized):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "prediction data is not yet initialized, try again shortly",
		})
	default:
		log.Error().Err(err).Msg("Query failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to compute win probability"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
