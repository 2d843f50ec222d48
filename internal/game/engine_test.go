package game

import (
	"math"
	"testing"
)

func newTestState() *State {
	s := NewState(DefaultSettings(), TypeOnline)
	// Deterministic ball for the tests that care about trajectory.
	s.Ball = Ball{X: 400, Y: 300, DX: 5, DY: 3, Radius: BallRadius}
	return s
}

func TestAdvance_FreeFlight(t *testing.T) {
	s := newTestState()

	Advance(s, 5)

	if s.Ball.X != 405 || s.Ball.Y != 303 {
		t.Errorf("ball at (%v,%v), want (405,303)", s.Ball.X, s.Ball.Y)
	}
	if s.Ball.DX != 5 || s.Ball.DY != 3 {
		t.Errorf("velocity = (%v,%v), want (5,3)", s.Ball.DX, s.Ball.DY)
	}
	if s.Score.Left != 0 || s.Score.Right != 0 {
		t.Errorf("score = %+v, want 0-0", s.Score)
	}
}

func TestAdvance_LeftScores(t *testing.T) {
	s := newTestState()
	s.Ball.X = CanvasWidth - 1
	s.Ball.DX = 5

	Advance(s, 5)

	if s.Score.Left != 1 {
		t.Errorf("score.Left = %d, want 1", s.Score.Left)
	}
	if s.Ball.X != CanvasWidth/2 || s.Ball.Y != CanvasHeight/2 {
		t.Errorf("ball at (%v,%v), want recentered", s.Ball.X, s.Ball.Y)
	}
	if math.Abs(s.Ball.DX) != 5 || math.Abs(s.Ball.DY) != 5 {
		t.Errorf("reset velocity = (%v,%v), want magnitude 5 on both axes", s.Ball.DX, s.Ball.DY)
	}
}

func TestAdvance_RightScores(t *testing.T) {
	s := newTestState()
	s.Ball.X = 1
	s.Ball.DX = -5

	Advance(s, 5)

	if s.Score.Right != 1 {
		t.Errorf("score.Right = %d, want 1", s.Score.Right)
	}
}

func TestAdvance_ScoringExclusiveWithCollision(t *testing.T) {
	s := newTestState()
	// Ball crossing the right goal line while overlapping the right paddle:
	// the goal wins, no rebound.
	s.Ball.X = CanvasWidth - 1
	s.Ball.DX = 5
	s.PaddleRight.Y = s.Ball.Y - PaddleHeight/2

	Advance(s, 5)

	if s.Score.Left != 1 {
		t.Errorf("score.Left = %d, want 1", s.Score.Left)
	}
	if s.Ball.X != CanvasWidth/2 {
		t.Errorf("ball.X = %v, want recentered, not bounced", s.Ball.X)
	}
}

func TestAdvance_PaddleCollisionInvertsDX(t *testing.T) {
	s := newTestState()
	s.Ball = Ball{X: LeftPaddleX + PaddleWidth + BallRadius + 2, Y: 300, DX: -5, DY: 3, Radius: BallRadius}
	s.PaddleLeft.Y = 250

	Advance(s, 5)

	if s.Ball.DX != 5 {
		t.Errorf("ball.DX = %v, want 5 (inverted)", s.Ball.DX)
	}
	if s.Ball.DY != 3 {
		t.Errorf("ball.DY = %v, want 3 (unchanged away from walls)", s.Ball.DY)
	}
}

func TestAdvance_CornerSaveInvertsDY(t *testing.T) {
	s := newTestState()
	s.Ball = Ball{X: LeftPaddleX + PaddleWidth + BallRadius + 2, Y: BallRadius + 5, DX: -5, DY: -3, Radius: BallRadius}
	s.PaddleLeft.Y = 0

	Advance(s, 5)

	if s.Ball.DX != 5 {
		t.Errorf("ball.DX = %v, want 5", s.Ball.DX)
	}
	if s.Ball.DY != 3 {
		t.Errorf("ball.DY = %v, want 3 (corner save)", s.Ball.DY)
	}
}

func TestAdvance_WallBounce(t *testing.T) {
	s := newTestState()
	s.Ball = Ball{X: 400, Y: 2, DX: 5, DY: -3, Radius: BallRadius}

	Advance(s, 5)

	if s.Ball.DY != 3 {
		t.Errorf("ball.DY = %v, want 3 (wall bounce)", s.Ball.DY)
	}
	if s.Ball.DX != 5 {
		t.Errorf("ball.DX = %v, want 5 (unchanged)", s.Ball.DX)
	}
}

func TestAdvance_FinishedIsNoOp(t *testing.T) {
	s := newTestState()
	s.Status = StatusFinished
	before := s.Ball

	Advance(s, 5)

	if s.Ball != before {
		t.Errorf("ball moved on finished state: %+v", s.Ball)
	}
}

func TestAdvance_WinAtThree(t *testing.T) {
	s := newTestState()
	s.WinningScore = 3

	for i := 0; i < 3; i++ {
		s.Ball.X = CanvasWidth - 1
		s.Ball.DX = 5
		Advance(s, 5)
	}

	if s.Status != StatusFinished {
		t.Errorf("status = %q, want %q", s.Status, StatusFinished)
	}
	if s.Winner != SideLeft {
		t.Errorf("winner = %q, want %q", s.Winner, SideLeft)
	}
	if s.Score.Left != 3 || s.Score.Right != 0 {
		t.Errorf("score = %+v, want 3-0", s.Score)
	}
}

func TestNewState(t *testing.T) {
	s := NewState(DefaultSettings(), TypeOnline)

	if s.Status != StatusConnecting {
		t.Errorf("status = %q, want %q", s.Status, StatusConnecting)
	}
	if s.Ball.X != CanvasWidth/2 || s.Ball.Y != CanvasHeight/2 {
		t.Errorf("ball at (%v,%v), want centered", s.Ball.X, s.Ball.Y)
	}
	if s.PaddleLeft.X != LeftPaddleX || s.PaddleRight.X != RightPaddleX {
		t.Errorf("paddles at %v/%v, want %v/%v", s.PaddleLeft.X, s.PaddleRight.X, LeftPaddleX, RightPaddleX)
	}
	if s.WinningScore != DefaultWinningScore {
		t.Errorf("winningScore = %d, want %d", s.WinningScore, DefaultWinningScore)
	}
}

func TestSide_Opponent(t *testing.T) {
	if SideLeft.Opponent() != SideRight {
		t.Errorf("left opponent = %q, want right", SideLeft.Opponent())
	}
	if SideRight.Opponent() != SideLeft {
		t.Errorf("right opponent = %q, want left", SideRight.Opponent())
	}
}
