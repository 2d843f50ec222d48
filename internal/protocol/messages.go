// Package protocol defines the JSON message contract carried over each
// player connection. Both directions use a flat envelope with a type tag;
// unused fields are omitted on the wire.
package protocol

import "github.com/ayuko3939/ft-transcendence-sub000/internal/game"

// Inbound message types.
const (
	MsgAuth         = "auth"
	MsgPaddleMove   = "paddleMove"
	MsgChat         = "chat"
	MsgSurrender    = "surrender"
	MsgGameSettings = "gameSettings"
)

// Outbound message types.
const (
	MsgInit       = "init"
	MsgCountdown  = "countdown"
	MsgGameStart  = "gameStart"
	MsgGameState  = "gameState"
	MsgGameOver   = "gameOver"
	MsgChatUpdate = "chatUpdate"
)

// Close codes for the authorization failures that terminate a connection.
const (
	CloseRoomFull     = 4000
	CloseUnauthorized = 4001
	CloseInvalidRoom  = 4002
)

// End reasons reported with gameOver and recorded with results.
const (
	ReasonCompleted    = "completed"
	ReasonSurrender    = "surrender"
	ReasonDisconnected = "opponent_disconnected"
)

// ClientMessage is the envelope received from clients.
type ClientMessage struct {
	Type         string  `json:"type"`
	SessionToken string  `json:"sessionToken,omitempty"`
	Y            float64 `json:"y,omitempty"`
	PlayerSide   string  `json:"playerSide,omitempty"`
	Name         string  `json:"name,omitempty"`
	Message      string  `json:"message,omitempty"`
	BallSpeed    int     `json:"ballSpeed,omitempty"`
	WinningScore int     `json:"winningScore,omitempty"`
}

// ChatEntry is one line of a room's chat log.
type ChatEntry struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// GameOverResult describes how a match ended.
type GameOverResult struct {
	Winner     game.Side  `json:"winner"`
	FinalScore game.Score `json:"finalScore"`
	Reason     string     `json:"reason,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// ServerMessage is the envelope sent to clients.
type ServerMessage struct {
	Type           string          `json:"type"`
	Side           game.Side       `json:"side,omitempty"`
	RoomID         string          `json:"roomId,omitempty"`
	State          *game.State     `json:"state,omitempty"`
	Count          int             `json:"count,omitempty"`
	Result         *GameOverResult `json:"result,omitempty"`
	OpponentUserID string          `json:"opponentUserId,omitempty"`
	Messages       []ChatEntry     `json:"messages,omitempty"`
}
