package game

import (
	"time"

	"duelarena/internal/timers"
)

const (
	reactionRounds      = 5
	reactionWinsNeeded  = 3
	reactionMinWait     = 2 * time.Second
	reactionMaxWait     = 6 * time.Second
	reactionTapTimeout  = 5 * time.Second
	reactionResultDelay = 1500 * time.Millisecond
	reactionGameOver    = time.Second
)

const (
	roundWaiting = "waiting"
	roundReady   = "ready"
	roundSignal  = "signal"
	roundResult  = "result"
)

type reactionState struct {
	Round      int         `json:"round"`
	RoundPhase string      `json:"roundPhase"`
	Scores     bySeat[int] `json:"scores"`
}

type roundEvent struct {
	Type  string `json:"type"`
	Round int    `json:"round"`
}

type falseStartEvent struct {
	Type   string      `json:"type"`
	Seat   int         `json:"seat"`
	Scores bySeat[int] `json:"scores"`
}

type reactionResult struct {
	Type       string      `json:"type"`
	Winner     int         `json:"winner"`
	ReactionMs int64       `json:"reactionMs"`
	Scores     bySeat[int] `json:"scores"`
}

// Reaction дуэль на реакцию: ждать сигнал, нажать первым; фальстарт отдает очко сопернику
type Reaction struct {
	base
	round      int
	roundPhase string
	scores     [2]int
	decided    bool
	signalAt   time.Time

	drawTimer timers.Handle
	tapTimer  timers.Handle
}

func NewReaction(d Deps) *Reaction {
	return &Reaction{base: newBase(d)}
}

func (g *Reaction) Init(Room) {
	g.timers.StopAll()
	g.round = 0
	g.roundPhase = roundWaiting
	g.scores = [2]int{}
	g.decided = false
	g.signalAt = time.Time{}
}

func (g *Reaction) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.nextRound()
}

func (g *Reaction) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "tap" || g.decided || !validSeat(seat) {
		return
	}
	opponent := other(seat)

	switch g.roundPhase {
	case roundReady:
		g.decided = true
		g.roundPhase = roundResult
		g.timers.Cancel(g.drawTimer)
		g.scores[opponent-1]++
		g.bc(falseStartEvent{Type: "false_start", Seat: seat, Scores: bySeat[int](g.scores)})
		g.checkMatchEnd()

	case roundSignal:
		g.decided = true
		g.roundPhase = roundResult
		g.timers.Cancel(g.tapTimer)
		reaction := g.timers.Now().Sub(g.signalAt).Milliseconds()
		g.scores[seat-1]++
		g.bc(reactionResult{
			Type:       "round_result",
			Winner:     seat,
			ReactionMs: reaction,
			Scores:     bySeat[int](g.scores),
		})
		g.checkMatchEnd()
	}
}

func (g *Reaction) nextRound() {
	if !g.playing() {
		return
	}
	g.round++
	g.decided = false
	g.roundPhase = roundReady
	g.bc(roundEvent{Type: "round_start", Round: g.round})

	wait := reactionMinWait + time.Duration(g.rng.Int64N(int64(reactionMaxWait-reactionMinWait)))
	g.drawTimer = g.timers.After(wait, func() {
		if !g.playing() || g.decided {
			return
		}
		g.roundPhase = roundSignal
		g.signalAt = g.timers.Now()
		g.bc(Event{Type: "draw_signal"})

		g.tapTimer = g.timers.After(reactionTapTimeout, func() {
			if g.decided || !g.playing() {
				return
			}
			g.decided = true
			g.roundPhase = roundResult
			g.bc(roundEvent{Type: "round_timeout", Round: g.round})
			g.checkMatchEnd()
		})
	})
}

func (g *Reaction) checkMatchEnd() {
	switch {
	case g.scores[0] >= reactionWinsNeeded:
		g.finishAfter(1, reactionGameOver)
	case g.scores[1] >= reactionWinsNeeded:
		g.finishAfter(2, reactionGameOver)
	case g.round >= reactionRounds:
		winner := 1
		if g.scores[1] > g.scores[0] {
			winner = 2
		}
		g.finishAfter(winner, reactionGameOver)
	default:
		g.timers.After(reactionResultDelay, g.nextRound)
	}
}

func (g *Reaction) State(Room) any {
	return reactionState{Round: g.round, RoundPhase: g.roundPhase, Scores: bySeat[int](g.scores)}
}
