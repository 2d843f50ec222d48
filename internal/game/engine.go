package game

import "math/rand"

// Advance runs one simulation tick over s. The order is fixed: integrate,
// score, paddle collision, wall bounce, win check. Scoring is exclusive with
// collision inside one tick, and a paddle hit suppresses the wall bounce, so
// a ball that crossed the goal line can never also rebound the same tick.
func Advance(s *State, ballSpeed float64) {
	if s.Status == StatusFinished {
		return
	}

	s.Ball.X += s.Ball.DX
	s.Ball.Y += s.Ball.DY

	if s.Ball.X >= CanvasWidth {
		s.Score.Left++
		ResetBall(s, ballSpeed)
		checkWin(s)
		return
	}
	if s.Ball.X <= 0 {
		s.Score.Right++
		ResetBall(s, ballSpeed)
		checkWin(s)
		return
	}

	collided := false
	if s.Ball.DX < 0 && hitsPaddle(s.Ball, s.PaddleLeft) {
		bounceOffPaddle(s)
		collided = true
	} else if s.Ball.DX > 0 && hitsPaddle(s.Ball, s.PaddleRight) {
		bounceOffPaddle(s)
		collided = true
	}

	if !collided && (s.Ball.Y <= 0 || s.Ball.Y >= CanvasHeight) {
		s.Ball.DY = -s.Ball.DY
	}

	checkWin(s)
}

// ResetBall recenters the ball and re-rolls its direction at the given speed.
func ResetBall(s *State, speed float64) {
	s.Ball = Ball{
		X:      CanvasWidth / 2,
		Y:      CanvasHeight / 2,
		DX:     speed * randSign(),
		DY:     speed * randSign(),
		Radius: BallRadius,
	}
}

func hitsPaddle(b Ball, p Paddle) bool {
	return b.X-b.Radius <= p.X+p.Width &&
		b.X+b.Radius >= p.X &&
		b.Y+b.Radius >= p.Y &&
		b.Y-b.Radius <= p.Y+p.Height
}

func bounceOffPaddle(s *State) {
	s.Ball.DX = -s.Ball.DX
	// Corner save: contact within one radius of a wall also flips DY so the
	// ball cannot get pinned in the paddle-wall seam.
	if s.Ball.Y <= 2*BallRadius || s.Ball.Y >= CanvasHeight-2*BallRadius {
		s.Ball.DY = -s.Ball.DY
	}
}

func checkWin(s *State) {
	if s.Score.Left >= s.WinningScore {
		s.Status = StatusFinished
		s.Winner = SideLeft
	} else if s.Score.Right >= s.WinningScore {
		s.Status = StatusFinished
		s.Winner = SideRight
	}
}

func randSign() float64 {
	if rand.Intn(2) == 0 {
		return 1
	}
	return -1
}
