package handlers

import (
	"context"

	"duelarena/internal/domain"
	"duelarena/internal/ws"
)

// MatchStore чтение истории матчей
type MatchStore interface {
	GetRecent(ctx context.Context, gameType string, limit int) ([]*domain.Match, error)
	CountByGame(ctx context.Context) (map[string]int64, error)
}

// Pinger проверка доступности зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler зависимости http ручек; Matches и DB могут быть nil
type Handler struct {
	Hub     *ws.Hub
	Matches MatchStore
	DB      Pinger
	Version string
}
