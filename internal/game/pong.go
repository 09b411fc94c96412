package game

import (
	"math"
	"time"

	"duelarena/internal/sim"
)

// поле 0..100, место 1 внизу, место 2 вверху
const (
	pongPaddleWidth   = 20.0
	pongPaddleHeight  = 2.0
	pongPaddleYOffset = 5.0
	pongBallRadius    = 1.5
	pongInitialSpeed  = 30.0
	pongMaxSpeed      = 60.0
	pongSpeedStep     = 2.0
	pongWinScore      = 5
	pongTimeLimit     = 90
	pongTick          = 16 * time.Millisecond
	pongSync          = 33 * time.Millisecond
	pongServeDelay    = 1500 * time.Millisecond
)

type pongBall struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

type pongState struct {
	Type     string          `json:"type,omitempty"`
	Paddles  bySeat[float64] `json:"paddles"`
	Ball     pongBall        `json:"ball"`
	Scores   bySeat[int]     `json:"scores"`
	TimeLeft int             `json:"timeLeft"`
}

type pongPointScored struct {
	Type   string      `json:"type"`
	Seat   int         `json:"seat"`
	Scores bySeat[int] `json:"scores"`
}

type seatEvent struct {
	Type string `json:"type"`
	Seat int    `json:"seat"`
}

type pongServe struct {
	Type   string `json:"type"`
	Server int    `json:"server"`
}

// Pong мяч и ракетки; клиент шлет только x своей ракетки
type Pong struct {
	base
	paddles    [2]float64
	ball       pongBall
	scores     [2]int
	timeLeft   int
	inPlay     bool
	nextServer int
	rally      int
	speed      float64
	over       bool
}

func NewPong(d Deps) *Pong {
	return &Pong{base: newBase(d)}
}

func (p *Pong) Init(Room) {
	p.timers.StopAll()
	p.paddles = [2]float64{50, 50}
	p.ball = pongBall{X: 50, Y: 50}
	p.scores = [2]int{}
	p.timeLeft = pongTimeLimit
	p.inPlay = false
	p.nextServer = 1
	p.rally = 0
	p.speed = pongInitialSpeed
	p.over = false
}

func (p *Pong) Start(r Room, b Broadcast) {
	p.bind(r, b)

	p.timers.Every(time.Second, func() {
		p.timeLeft--
		if p.timeLeft <= 0 {
			p.timeUp()
		}
	})
	p.timers.Every(pongTick, p.tick)
	p.timers.Every(pongSync, func() {
		p.bc(p.snapshot("pong_state"))
	})
	p.serve()
}

func (p *Pong) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "paddle_move" || p.over || !validSeat(seat) {
		return
	}
	var in struct {
		X *float64 `json:"x"`
	}
	if !m.Decode(&in) || in.X == nil || !sim.Finite(*in.X) {
		return
	}
	half := pongPaddleWidth / 2
	p.paddles[seat-1] = sim.Clamp(*in.X, half, 100-half)
}

func (p *Pong) tick() {
	if !p.inPlay {
		return
	}
	dt := pongTick.Seconds()
	b := &p.ball
	b.X += b.VX * dt
	b.Y += b.VY * dt

	if b.X <= pongBallRadius {
		b.X = pongBallRadius
		b.VX = math.Abs(b.VX)
	} else if b.X >= 100-pongBallRadius {
		b.X = 100 - pongBallRadius
		b.VX = -math.Abs(b.VX)
	}

	// полоса касания нижней ракетки (место 1)
	bottom := 100 - pongPaddleYOffset
	if b.VY > 0 &&
		b.Y+pongBallRadius >= bottom-pongPaddleHeight/2 &&
		b.Y+pongBallRadius <= bottom+pongPaddleHeight/2+2 &&
		pongPaddleHit(p.paddles[0], b.X) {
		p.reflect(p.paddles[0], -1)
		p.bc(seatEvent{Type: "paddle_hit", Seat: 1})
	}

	top := pongPaddleYOffset
	if b.VY < 0 &&
		b.Y-pongBallRadius <= top+pongPaddleHeight/2 &&
		b.Y-pongBallRadius >= top-pongPaddleHeight/2-2 &&
		pongPaddleHit(p.paddles[1], b.X) {
		p.reflect(p.paddles[1], 1)
		p.bc(seatEvent{Type: "paddle_hit", Seat: 2})
	}

	switch {
	case b.Y > 100+pongBallRadius*2:
		p.score(2)
	case b.Y < -pongBallRadius*2:
		p.score(1)
	}
}

func pongPaddleHit(paddleX, ballX float64) bool {
	half := pongPaddleWidth / 2
	return ballX >= paddleX-half-pongBallRadius && ballX <= paddleX+half+pongBallRadius
}

// reflect угол возврата от 20 до 70 градусов по смещению от центра ракетки
func (p *Pong) reflect(paddleX, dirY float64) {
	offset := sim.Clamp((p.ball.X-paddleX)/(pongPaddleWidth/2), -1, 1)

	p.rally++
	p.speed = math.Min(pongMaxSpeed, pongInitialSpeed+float64(p.rally)*pongSpeedStep)

	angle := sim.BounceAngle(offset, 20, 70)
	dirX := sim.Sign(offset)
	if dirX == 0 {
		dirX = 1
		if p.rng.IntN(2) == 0 {
			dirX = -1
		}
	}
	p.ball.VX = math.Sin(angle) * p.speed * dirX
	p.ball.VY = math.Cos(angle) * p.speed * dirY

	// выталкиваем мяч из ракетки, чтобы не было двойного касания
	if dirY > 0 {
		p.ball.Y = pongPaddleYOffset + pongPaddleHeight/2 + pongBallRadius + 0.5
	} else {
		p.ball.Y = 100 - pongPaddleYOffset - pongPaddleHeight/2 - pongBallRadius - 0.5
	}
}

func (p *Pong) score(seat int) {
	p.scores[seat-1]++
	p.inPlay = false
	p.bc(pongPointScored{Type: "point_scored", Seat: seat, Scores: bySeat[int](p.scores)})

	if p.scores[seat-1] >= pongWinScore {
		p.over = true
		p.finish(seat)
		return
	}

	// подает тот, кто пропустил
	p.nextServer = other(seat)
	p.timers.After(pongServeDelay, func() {
		if p.playing() {
			p.serve()
		}
	})
}

func (p *Pong) serve() {
	p.ball.X, p.ball.Y = 50, 50
	p.rally = 0
	p.speed = pongInitialSpeed

	angle := sim.Deg2Rad(30 + p.rng.Float64()*30)
	dirX := 1.0
	if p.rng.Float64() < 0.5 {
		dirX = -1
	}
	// в сторону соперника подающего
	dirY := 1.0
	if p.nextServer == 1 {
		dirY = -1
	}
	p.ball.VX = math.Sin(angle) * p.speed * dirX
	p.ball.VY = math.Cos(angle) * p.speed * dirY
	p.inPlay = true

	p.bc(pongServe{Type: "serve", Server: p.nextServer})
}

func (p *Pong) timeUp() {
	p.over = true
	winner := 1
	if p.scores[1] > p.scores[0] {
		winner = 2
	}
	p.finish(winner)
}

func (p *Pong) snapshot(typ string) pongState {
	return pongState{
		Type:     typ,
		Paddles:  bySeat[float64](p.paddles),
		Ball:     p.ball,
		Scores:   bySeat[int](p.scores),
		TimeLeft: p.timeLeft,
	}
}

func (p *Pong) State(Room) any { return p.snapshot("") }
