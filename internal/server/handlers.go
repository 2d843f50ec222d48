package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/db"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/rooms"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/session"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/stats"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/tournament"
)

type Server struct {
	Rooms       *rooms.Store
	Coordinator *session.Coordinator
	Tournaments *tournament.Manager
	Stats       *stats.Queries // nil if no database configured
	DB          *db.DB         // nil if no database configured
	Lobby       *Broadcaster
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Handle] Encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// tournamentStatus maps a domain error to an HTTP status. Validation
// failures are the caller's fault; everything else is ours.
func tournamentStatus(err error) int {
	switch {
	case errors.Is(err, tournament.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tournament.ErrNotWaiting),
		errors.Is(err, tournament.ErrAlreadyJoined),
		errors.Is(err, tournament.ErrFull),
		errors.Is(err, tournament.ErrNotCreator),
		errors.Is(err, tournament.ErrTooFewParticipants):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	status := tournament.Status(r.URL.Query().Get("status"))
	list, err := s.Tournaments.List(r.Context(), status)
	if err != nil {
		log.Printf("[Handle:Tournaments] List error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list tournaments")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		MaxParticipants int    `json:"maxParticipants"`
		CreatorID       string `json:"creatorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CreatorID == "" {
		writeError(w, http.StatusBadRequest, "creatorId is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	t, err := s.Tournaments.Create(r.Context(), req.Name, req.MaxParticipants, req.CreatorID)
	if err != nil {
		writeError(w, tournamentStatus(err), err.Error())
		return
	}
	log.Printf("[Handle:Tournaments] Created %s (%s)", t.Name, t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleJoinTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	p, err := s.Tournaments.Join(r.Context(), id, req.UserID)
	if err != nil {
		writeError(w, tournamentStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStartTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := s.Tournaments.Start(r.Context(), id, req.UserID); err != nil {
		writeError(w, tournamentStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := s.Tournaments.GetView(r.Context(), id)
	if err != nil {
		writeError(w, tournamentStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	match, err := s.Tournaments.GetMatch(r.Context(), matchID)
	if err != nil {
		writeError(w, tournamentStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "statistics require a database")
		return
	}
	userID := mux.Vars(r)["id"]

	playerStats, err := s.Stats.GetPlayerStats(userID)
	if err != nil {
		log.Printf("[Handle:Stats] GetPlayerStats error: %v", err)
		writeError(w, http.StatusNotFound, "player not found")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	recent, err := s.Stats.GetRecentGames(userID, limit)
	if err != nil {
		log.Printf("[Handle:Stats] GetRecentGames error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load recent games")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       playerStats,
		"recentGames": recent,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"%s","error":"%s"}`, status, err.Error())
			return
		}
	}
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}
