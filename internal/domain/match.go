package domain

import "time"

// Match итог одного матча в комнате
type Match struct {
	ID         int64     `db:"id" json:"id"`
	RoomCode   string    `db:"room_code" json:"room_code"`
	GameType   string    `db:"game_type" json:"game_type"`
	Player1    string    `db:"player1" json:"player1"`
	Player2    string    `db:"player2" json:"player2"`
	Winner     int       `db:"winner" json:"winner"` // 0 ничья
	Bet        *string   `db:"bet" json:"bet,omitempty"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// WinnerName имя победителя или пустая строка при ничьей
func (m *Match) WinnerName() string {
	switch m.Winner {
	case 1:
		return m.Player1
	case 2:
		return m.Player2
	default:
		return ""
	}
}
