package game

// Field and object dimensions. The server is authoritative; clients render
// whatever state they are sent.
const (
	CanvasWidth  = 800.0
	CanvasHeight = 600.0

	BallRadius   = 10.0
	PaddleWidth  = 10.0
	PaddleHeight = 100.0

	LeftPaddleX  = 10.0
	RightPaddleX = CanvasWidth - LeftPaddleX - PaddleWidth

	DefaultBallSpeed    = 5
	DefaultWinningScore = 5
)

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

type Status string

const (
	StatusConnecting Status = "connecting"
	StatusSetup      Status = "setup"
	StatusWaiting    Status = "waiting"
	StatusCountdown  Status = "countdown"
	StatusPlaying    Status = "playing"
	StatusFinished   Status = "finished"
)

type Type string

const (
	TypeOnline     Type = "online"
	TypeLocal      Type = "local"
	TypeTournament Type = "tournament"
)

type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Radius float64 `json:"radius"`
}

type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Settings are the per-room tunables negotiated before a match starts.
type Settings struct {
	BallSpeed    int `json:"ballSpeed"`
	WinningScore int `json:"winningScore"`
}

func DefaultSettings() Settings {
	return Settings{
		BallSpeed:    DefaultBallSpeed,
		WinningScore: DefaultWinningScore,
	}
}

// State is the complete simulation state of one match. It is owned by a
// single room and must only be touched while holding that room's lock.
type State struct {
	Ball         Ball   `json:"ball"`
	PaddleLeft   Paddle `json:"paddleLeft"`
	PaddleRight  Paddle `json:"paddleRight"`
	Score        Score  `json:"score"`
	Status       Status `json:"status"`
	Winner       Side   `json:"winner,omitempty"`
	WinningScore int    `json:"winningScore"`
	GameType     Type   `json:"gameType"`
}

// NewState builds the initial state for a room: ball centered with a random
// direction, paddles centered on their side.
func NewState(settings Settings, gameType Type) *State {
	s := &State{
		PaddleLeft: Paddle{
			X:      LeftPaddleX,
			Y:      (CanvasHeight - PaddleHeight) / 2,
			Width:  PaddleWidth,
			Height: PaddleHeight,
		},
		PaddleRight: Paddle{
			X:      RightPaddleX,
			Y:      (CanvasHeight - PaddleHeight) / 2,
			Width:  PaddleWidth,
			Height: PaddleHeight,
		},
		Status:       StatusConnecting,
		WinningScore: settings.WinningScore,
		GameType:     gameType,
	}
	ResetBall(s, float64(settings.BallSpeed))
	return s
}
