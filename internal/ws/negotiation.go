package ws

// negotiation запросы рестарта и смены игры между матчами.
// Одновременно ждет либо рестарт, либо предложение, но не оба.
type negotiation struct {
	restartSeat  int
	proposalSeat int
	proposalType string
}

// requestRestart true когда оба места попросили рестарт
func (n *negotiation) requestRestart(seat int) bool {
	n.proposalSeat, n.proposalType = 0, ""
	if n.restartSeat != 0 && n.restartSeat != seat {
		n.restartSeat = 0
		return true
	}
	n.restartSeat = seat
	return false
}

// propose заменяет любое прежнее предложение и отменяет ожидание рестарта
func (n *negotiation) propose(seat int, gameType string) {
	n.restartSeat = 0
	n.proposalSeat, n.proposalType = seat, gameType
}

// accept возвращает предложенный тип, если его принимает другое место.
// Принятие собственного предложения просто сбрасывает его.
func (n *negotiation) accept(seat int) (string, bool) {
	if n.proposalSeat == 0 {
		return "", false
	}
	proposer, gameType := n.proposalSeat, n.proposalType
	n.proposalSeat, n.proposalType = 0, ""
	if proposer == seat {
		return "", false
	}
	return gameType, true
}

func (n *negotiation) reset() {
	*n = negotiation{}
}
