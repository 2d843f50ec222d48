package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/config"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/db"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/results"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/rooms"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/session"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/stats"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/tournament"
)

// dbSessionResolver authenticates session tokens against the sessions
// table.
type dbSessionResolver struct {
	db *db.DB
}

func (r dbSessionResolver) Resolve(_ context.Context, token string) (string, error) {
	return r.db.ResolveSession(token)
}

func Run() error {
	cfg := config.Load()

	defaults := game.Settings{
		BallSpeed:    cfg.BallSpeed,
		WinningScore: cfg.WinningScore,
	}
	roomStore := rooms.NewStore(defaults)

	bus := tournament.NewBus()
	var tournamentStore tournament.Store = tournament.NewMemoryStore()

	srv := &Server{
		Rooms: roomStore,
		Lobby: NewBroadcaster(bus),
	}

	// Optional database connection
	var resolver session.TokenResolver
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.Stats = stats.NewQueries(database)
			tournamentStore = tournament.NewPostgresStore(database)
			resolver = dbSessionResolver{db: database}
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	srv.Tournaments = tournament.NewManager(tournamentStore, bus)
	recorder := results.NewRecorder(srv.DB, srv.Tournaments)
	srv.Coordinator = session.New(roomStore, recorder, srv.Tournaments, resolver,
		cfg.CountdownSecs, cfg.TickIntervalMs)

	addr := "0.0.0.0:" + cfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", cfg.Port)
	return http.ListenAndServe(addr, srv.RegisterRoutes())
}

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/ws", s.handleMatchmaking)
	r.HandleFunc("/ws/local", s.handleLocal)
	r.HandleFunc("/ws/tournament/{matchId}", s.handleTournamentMatch)
	r.HandleFunc("/ws/{roomId}", s.handleDirectJoin)

	r.HandleFunc("/tournaments", s.handleListTournaments).Methods(http.MethodGet)
	r.HandleFunc("/tournaments", s.handleCreateTournament).Methods(http.MethodPost)
	r.HandleFunc("/tournaments/events", s.handleLobbyEvents).Methods(http.MethodGet)
	r.HandleFunc("/tournaments/{id}", s.handleGetTournament).Methods(http.MethodGet)
	r.HandleFunc("/tournaments/{id}/join", s.handleJoinTournament).Methods(http.MethodPost)
	r.HandleFunc("/tournaments/{id}/start", s.handleStartTournament).Methods(http.MethodPost)
	r.HandleFunc("/tournaments/{id}/matches/{matchId}", s.handleGetMatch).Methods(http.MethodGet)

	r.HandleFunc("/players/{id}/stats", s.handlePlayerStats).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
