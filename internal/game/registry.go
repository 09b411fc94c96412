package game

import (
	"fmt"
	"sort"
)

// Registry таблица тип игры -> фабрика движка
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register добавляет фабрику; повторная регистрация типа это ошибка программы
func (r *Registry) Register(gameType string, f Factory) {
	if _, dup := r.factories[gameType]; dup {
		panic(fmt.Sprintf("game: duplicate registration of %q", gameType))
	}
	r.factories[gameType] = f
}

func (r *Registry) Lookup(gameType string) (Factory, bool) {
	f, ok := r.factories[gameType]
	return f, ok
}

func (r *Registry) Has(gameType string) bool {
	_, ok := r.factories[gameType]
	return ok
}

// Types зарегистрированные типы по алфавиту
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry все пятнадцать игр
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeHex, func(d Deps) Engine { return NewHex(d) })
	r.Register(TypeConnect4, func(d Deps) Engine { return NewConnect4(d) })
	r.Register(TypePong, func(d Deps) Engine { return NewPong(d) })
	r.Register(TypeReaction, func(d Deps) Engine { return NewReaction(d) })
	r.Register(TypeBomb, func(d Deps) Engine { return NewBomb(d) })
	r.Register(TypeTapSprint, func(d Deps) Engine { return NewTapSprint(d) })
	r.Register(TypeScream, func(d Deps) Engine { return NewScream(d) })
	r.Register(TypeMemory, func(d Deps) Engine { return NewMemory(d) })
	r.Register(TypeEmojiQuiz, func(d Deps) Engine { return NewEmojiQuiz(d) })
	r.Register(TypeSprint, func(d Deps) Engine { return NewSprint(d) })
	r.Register(TypeDrift, func(d Deps) Engine { return NewDrift(d) })
	r.Register(TypeDerby, func(d Deps) Engine { return NewDerby(d) })
	r.Register(TypeSkyDuel, func(d Deps) Engine { return NewSkyDuel(d) })
	r.Register(TypeMaze, func(d Deps) Engine { return NewMazeRun(d) })
	r.Register(TypeSnakeClash, func(d Deps) Engine { return NewSnakeClash(d) })
	return r
}

const (
	TypeHex        = "hex"
	TypeConnect4   = "connect4"
	TypePong       = "pong"
	TypeReaction   = "reaction"
	TypeBomb       = "bomb"
	TypeTapSprint  = "tapsprint"
	TypeScream     = "scream"
	TypeMemory     = "memory"
	TypeEmojiQuiz  = "emojiquiz"
	TypeSprint     = "sprint"
	TypeDrift      = "drift"
	TypeDerby      = "derby"
	TypeSkyDuel    = "skyduel"
	TypeMaze       = "maze"
	TypeSnakeClash = "snakeclash"
)
