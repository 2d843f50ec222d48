package tournament

import "time"

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type ParticipantStatus string

const (
	ParticipantActive     ParticipantStatus = "active"
	ParticipantEliminated ParticipantStatus = "eliminated"
	ParticipantWinner     ParticipantStatus = "winner"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

type Tournament struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatorID       string    `json:"creatorId"`
	Status          Status    `json:"status"`
	MaxParticipants int       `json:"maxParticipants"`
	CurrentRound    int       `json:"currentRound"`
	WinnerID        string    `json:"winnerId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Participant struct {
	ID              string            `json:"id"`
	TournamentID    string            `json:"tournamentId"`
	UserID          string            `json:"userId"`
	Status          ParticipantStatus `json:"status"`
	EliminatedRound int               `json:"eliminatedRound,omitempty"`
	JoinedAt        time.Time         `json:"joinedAt"`
}

// Match is a scheduled pairing within a round, distinct from the transient
// room that executes it.
type Match struct {
	ID           string      `json:"id"`
	TournamentID string      `json:"tournamentId"`
	Round        int         `json:"round"`
	MatchNumber  int         `json:"matchNumber"`
	Player1ID    string      `json:"player1Id"`
	Player2ID    string      `json:"player2Id"`
	WinnerID     string      `json:"winnerId,omitempty"`
	GameID       string      `json:"gameId,omitempty"`
	Status       MatchStatus `json:"status"`
}

// View is the refreshed tournament snapshot pushed to lobby listeners.
type View struct {
	Tournament   *Tournament    `json:"tournament"`
	Participants []*Participant `json:"participants"`
	Matches      []*Match       `json:"matches"`
}
