package game

import (
	"slices"
	"time"

	"duelarena/internal/sim"
	"duelarena/internal/timers"
)

const (
	eqRounds       = 5
	eqOptions      = 12
	eqClueSize     = 3
	eqClueTimeout  = 15 * time.Second
	eqGuessTimeout = 15 * time.Second
	eqRevealDelay  = 2500 * time.Millisecond
	eqNoAnswer     = "(no answer)"
)

const (
	eqPhaseClue   = "clue"
	eqPhaseGuess  = "guess"
	eqPhaseReveal = "reveal"
)

type eqWord struct {
	Word   string
	Decoys [3]string
}

var eqWordBank = []eqWord{
	{"cat", [3]string{"dog", "bird", "fish"}},
	{"pizza", [3]string{"burger", "sushi", "salad"}},
	{"football", [3]string{"basketball", "tennis", "swimming"}},
	{"beach", [3]string{"mountain", "forest", "desert"}},
	{"birthday", [3]string{"wedding", "holiday", "graduation"}},
	{"school", [3]string{"office", "shop", "restaurant"}},
	{"rain", [3]string{"snow", "sun", "wind"}},
	{"music", [3]string{"painting", "dance", "singing"}},
	{"doctor", [3]string{"teacher", "police officer", "cook"}},
	{"flight", [3]string{"drive", "sailing", "hike"}},
	{"coffee", [3]string{"tea", "juice", "beer"}},
	{"movie", [3]string{"book", "song", "game"}},
	{"dream", [3]string{"nightmare", "thought", "memory"}},
	{"child", [3]string{"baby", "adult", "old man"}},
	{"money", [3]string{"gold", "diamond", "coin"}},
	{"love", [3]string{"hate", "friendship", "jealousy"}},
	{"sun", [3]string{"moon", "star", "cloud"}},
	{"party", [3]string{"meeting", "lesson", "ceremony"}},
	{"princess", [3]string{"queen", "hero", "witch"}},
	{"ice cream", [3]string{"cake", "chocolate", "candy"}},
	{"dog", [3]string{"cat", "rabbit", "fish"}},
	{"sport", [3]string{"food", "music", "art"}},
	{"winter", [3]string{"summer", "spring", "autumn"}},
	{"night", [3]string{"morning", "noon", "evening"}},
	{"ocean", [3]string{"river", "lake", "pool"}},
}

var eqEmojiPool = []string{
	"😀", "😂", "😍", "🤔", "😱", "🤮", "😴", "🥳", "😎", "🤯", "🥺", "😈",
	"🐶", "🐱", "🐸", "🦊", "🐼", "🦁", "🐷", "🐵", "🦄", "🐙", "🦋", "🐢",
	"🍕", "🍔", "🍣", "🥗", "🍦", "🎂", "☕", "🍺", "🥤", "🍎", "🌽", "🧀",
	"⚽", "🏀", "🎾", "🏊", "✈️", "🚗", "🚀", "🎸", "🎬", "📚", "💰", "💎",
	"❤️", "⭐", "🔥", "💧", "🌈", "🎯", "🏠", "🌙", "☀️", "🌊", "🏔️", "🌲",
	"👶", "👧", "👨", "👴", "👸", "🧙", "🦸", "💀", "👻", "🤖", "👽", "🎅",
}

type eqState struct {
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	Scores      [2]int `json:"scores"`
	Phase       string `json:"phase"`
	ClueGiver   int    `json:"clueGiver"`
}

type eqCluePhase struct {
	Type         string   `json:"type"`
	Word         string   `json:"word,omitempty"`
	EmojiOptions []string `json:"emojiOptions,omitempty"`
	Round        int      `json:"round"`
	TotalRounds  int      `json:"totalRounds"`
	Scores       [2]int   `json:"scores"`
	Role         string   `json:"role"`
	Waiting      bool     `json:"waiting,omitempty"`
}

type eqGuessPhase struct {
	Type      string   `json:"type"`
	Emojis    []string `json:"emojis"`
	Options   []string `json:"options"`
	Round     int      `json:"round"`
	Scores    [2]int   `json:"scores"`
	ClueGiver int      `json:"clueGiver"`
}

type eqReveal struct {
	Type        string   `json:"type"`
	Correct     bool     `json:"correct"`
	CorrectWord string   `json:"correctWord"`
	Guess       string   `json:"guess"`
	Emojis      []string `json:"emojis"`
	Scores      [2]int   `json:"scores"`
	Round       int      `json:"round"`
}

// EmojiQuiz один загадывает слово тремя эмодзи, другой угадывает из четырех вариантов;
// роли меняются каждый раунд, очко получает угадавший
type EmojiQuiz struct {
	base
	rounds    []eqWord
	current   int
	phase     string
	clueGiver int
	selected  []string
	options   []string
	scores    [2]int

	phaseTimer timers.Handle
}

func NewEmojiQuiz(d Deps) *EmojiQuiz {
	return &EmojiQuiz{base: newBase(d)}
}

func (g *EmojiQuiz) Init(Room) {
	g.timers.StopAll()
	g.rounds = sim.Sample(g.rng, eqWordBank, eqRounds)
	g.current = 0
	g.phase = eqPhaseClue
	g.clueGiver = 1
	g.selected = nil
	g.options = nil
	g.scores = [2]int{}
}

func (g *EmojiQuiz) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.options = sim.Sample(g.rng, eqEmojiPool, eqOptions)
	g.startClue()
}

func (g *EmojiQuiz) guesser() int { return other(g.clueGiver) }

// startClue слово видит только загадывающий
func (g *EmojiQuiz) startClue() {
	word := g.rounds[g.current]
	g.room.SendTo(g.clueGiver, eqCluePhase{
		Type:         "eq_clue_phase",
		Word:         word.Word,
		EmojiOptions: slices.Clone(g.options),
		Round:        g.current + 1,
		TotalRounds:  eqRounds,
		Scores:       g.scores,
		Role:         "clue_giver",
	})
	g.room.SendTo(g.guesser(), eqCluePhase{
		Type:        "eq_clue_phase",
		Round:       g.current + 1,
		TotalRounds: eqRounds,
		Scores:      g.scores,
		Role:        "guesser",
		Waiting:     true,
	})

	g.phaseTimer = g.timers.After(eqClueTimeout, func() {
		if g.phase == eqPhaseClue {
			g.selected = sim.Sample(g.rng, g.options, eqClueSize)
			g.startGuess()
		}
	})
}

func (g *EmojiQuiz) startGuess() {
	g.phase = eqPhaseGuess
	g.timers.Cancel(g.phaseTimer)

	word := g.rounds[g.current]
	options := append([]string{word.Word}, word.Decoys[:]...)
	sim.Shuffle(g.rng, options)

	g.bc(eqGuessPhase{
		Type:      "eq_guess_phase",
		Emojis:    slices.Clone(g.selected),
		Options:   options,
		Round:     g.current + 1,
		Scores:    g.scores,
		ClueGiver: g.clueGiver,
	})

	g.phaseTimer = g.timers.After(eqGuessTimeout, func() {
		if g.phase == eqPhaseGuess {
			g.resolve("")
		}
	})
}

func (g *EmojiQuiz) resolve(guess string) {
	word := g.rounds[g.current]
	correct := guess == word.Word
	if correct {
		g.scores[g.guesser()-1]++
	}
	g.phase = eqPhaseReveal
	g.timers.Cancel(g.phaseTimer)

	shown := guess
	if shown == "" {
		shown = eqNoAnswer
	}
	g.bc(eqReveal{
		Type:        "eq_reveal",
		Correct:     correct,
		CorrectWord: word.Word,
		Guess:       shown,
		Emojis:      slices.Clone(g.selected),
		Scores:      g.scores,
		Round:       g.current + 1,
	})

	g.timers.After(eqRevealDelay, func() {
		g.current++
		if g.current >= eqRounds {
			winner := 0
			switch {
			case g.scores[0] > g.scores[1]:
				winner = 1
			case g.scores[1] > g.scores[0]:
				winner = 2
			}
			g.finish(winner)
			return
		}
		g.clueGiver = other(g.clueGiver)
		g.phase = eqPhaseClue
		g.selected = nil
		g.options = sim.Sample(g.rng, eqEmojiPool, eqOptions)
		g.startClue()
	})
}

func (g *EmojiQuiz) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	switch m.Type {
	case "eq_select_emojis":
		if seat != g.clueGiver || g.phase != eqPhaseClue {
			return
		}
		var in struct {
			Emojis []string `json:"emojis"`
		}
		if !m.Decode(&in) || len(in.Emojis) != eqClueSize {
			return
		}
		for _, e := range in.Emojis {
			if !slices.Contains(g.options, e) {
				return
			}
		}
		g.selected = in.Emojis
		g.startGuess()

	case "eq_guess":
		if seat != g.guesser() || g.phase != eqPhaseGuess {
			return
		}
		var in struct {
			Word string `json:"word"`
		}
		if !m.Decode(&in) {
			return
		}
		g.resolve(in.Word)
	}
}

func (g *EmojiQuiz) State(Room) any {
	return eqState{
		Round:       g.current,
		TotalRounds: eqRounds,
		Scores:      g.scores,
		Phase:       g.phase,
		ClueGiver:   g.clueGiver,
	}
}
