// Package results is the recorder boundary: it persists finished-match
// outcomes and feeds tournament match completion. Persistence failures are
// logged and swallowed; the in-memory outcome already shown to players is
// never rolled back.
package results

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/db"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/tournament"
)

// GameResult is the immutable snapshot of a finished match handed to the
// recorder.
type GameResult struct {
	LeftUserID   string
	RightUserID  string
	Winner       game.Side
	Score        game.Score
	GameType     game.Type
	BallSpeed    int
	WinningScore int
	EndReason    string

	// Set only for tournament matches.
	TournamentID      string
	TournamentMatchID string
}

func (r GameResult) winnerUserID() string {
	if r.Winner == game.SideLeft {
		return r.LeftUserID
	}
	return r.RightUserID
}

type Recorder struct {
	db          *db.DB // nil when running without a database
	tournaments *tournament.Manager
}

func NewRecorder(database *db.DB, tournaments *tournament.Manager) *Recorder {
	return &Recorder{db: database, tournaments: tournaments}
}

// SaveGameResult persists the match and its per-side results, then forwards
// tournament completions to the tournament manager.
func (r *Recorder) SaveGameResult(ctx context.Context, res GameResult) {
	gameID := r.persist(res)

	if res.TournamentMatchID != "" && r.tournaments != nil {
		if gameID == "" {
			gameID = uuid.New().String()
		}
		err := r.tournaments.ProcessMatchResult(ctx, res.TournamentMatchID, res.winnerUserID(), gameID)
		if err != nil && !errors.Is(err, tournament.ErrMatchCompleted) {
			log.Printf("[Results] ProcessMatchResult error for match %s: %v", res.TournamentMatchID, err)
		}
	}
}

// persist writes the game and result rows, returning the game id or "" when
// nothing was written.
func (r *Recorder) persist(res GameResult) string {
	if r.db == nil {
		return ""
	}
	if _, err := uuid.Parse(res.LeftUserID); err != nil {
		log.Printf("[Results] Skipping persistence, malformed left user id %q", res.LeftUserID)
		return ""
	}
	if _, err := uuid.Parse(res.RightUserID); err != nil {
		log.Printf("[Results] Skipping persistence, malformed right user id %q", res.RightUserID)
		return ""
	}
	for _, id := range []string{res.LeftUserID, res.RightUserID} {
		exists, err := r.db.UserExists(id)
		if err != nil {
			log.Printf("[Results] UserExists error: %v", err)
			return ""
		}
		if !exists {
			log.Printf("[Results] Skipping persistence, unknown user %q", id)
			return ""
		}
	}

	gameID, err := r.db.CreateGame(string(res.GameType), res.BallSpeed, res.WinningScore)
	if err != nil {
		log.Printf("[Results] CreateGame error: %v", err)
		return ""
	}
	if err := r.db.EndGame(gameID, res.EndReason); err != nil {
		log.Printf("[Results] EndGame error: %v", err)
	}

	leftResult, rightResult := "lose", "win"
	if res.Winner == game.SideLeft {
		leftResult, rightResult = "win", "lose"
	}
	if err := r.db.AddGameResult(gameID, res.LeftUserID, string(game.SideLeft), res.Score.Left, leftResult); err != nil {
		log.Printf("[Results] AddGameResult error: %v", err)
	}
	if err := r.db.AddGameResult(gameID, res.RightUserID, string(game.SideRight), res.Score.Right, rightResult); err != nil {
		log.Printf("[Results] AddGameResult error: %v", err)
	}
	return gameID
}
