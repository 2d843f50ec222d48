package tournament

// Update signals that a tournament's state changed and lobby views should
// refresh.
type Update struct {
	TournamentID string `json:"tournamentId"`
}

type Bus struct {
	Updates chan Update
}

func NewBus() *Bus {
	return &Bus{
		Updates: make(chan Update, 32),
	}
}
