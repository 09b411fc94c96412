package repository

import (
	"context"

	"duelarena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за историю матчей в базе
type MatchRepository struct {
	db *pgxpool.Pool
}

// создает новый репозиторий истории матчей
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// сохраняет итог матча и проставляет ему id
func (r *MatchRepository) RecordMatch(ctx context.Context, m *domain.Match) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO match_results (room_code, game_type, player1, player2, winner, bet, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, m.RoomCode, m.GameType, m.Player1, m.Player2, m.Winner, m.Bet, m.StartedAt, m.FinishedAt).Scan(&m.ID)
}

// возвращает последние матчи; пустой gameType означает все игры
func (r *MatchRepository) GetRecent(ctx context.Context, gameType string, limit int) ([]*domain.Match, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_code, game_type, player1, player2, winner, bet, started_at, finished_at
		FROM match_results
		WHERE $1 = '' OR game_type = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`, gameType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// возвращает число сыгранных матчей по типам игр
func (r *MatchRepository) CountByGame(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT game_type, COUNT(*)
		FROM match_results
		GROUP BY game_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var gameType string
		var n int64
		if err := rows.Scan(&gameType, &n); err != nil {
			return nil, err
		}
		counts[gameType] = n
	}
	return counts, rows.Err()
}

// преобразует строки из БД в структуры Match
func scanMatches(rows pgx.Rows) ([]*domain.Match, error) {
	var matches []*domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.GameType, &m.Player1, &m.Player2, &m.Winner, &m.Bet, &m.StartedAt, &m.FinishedAt); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}
