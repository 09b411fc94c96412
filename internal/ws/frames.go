package ws

import "encoding/json"

// envelope только тип входящего кадра
type envelope struct {
	Type string `json:"type"`
}

type createRequest struct {
	GameType string          `json:"gameType"`
	Name     string          `json:"name"`
	Bet      json.RawMessage `json:"bet"`
}

type joinRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type proposeRequest struct {
	GameType string `json:"gameType"`
}

type errorFrame struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

func newError(err error) errorFrame {
	return errorFrame{Type: "error", Msg: err.Error()}
}

type createdFrame struct {
	Type     string  `json:"type"`
	Code     string  `json:"code"`
	Seat     int     `json:"seat"`
	GameType string  `json:"gameType"`
	Bet      *string `json:"bet"`
}

type joinedFrame struct {
	Type        string  `json:"type"`
	Code        string  `json:"code"`
	Seat        int     `json:"seat"`
	GameType    string  `json:"gameType"`
	Bet         *string `json:"bet"`
	CreatorName string  `json:"creatorName"`
}

// первый кадр отсчета несет имена, тип игры и ставку
type countdownStartFrame struct {
	Type     string    `json:"type"`
	Count    int       `json:"count"`
	Names    [2]string `json:"names"`
	GameType string    `json:"gameType"`
	Bet      *string   `json:"bet"`
}

type countdownFrame struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type gameStartFrame struct {
	Type     string    `json:"type"`
	GameType string    `json:"gameType"`
	Names    [2]string `json:"names"`
	State    any       `json:"state"`
}

type seatFrame struct {
	Type string `json:"type"`
	Seat int    `json:"seat"`
}

type proposedFrame struct {
	Type     string `json:"type"`
	GameType string `json:"gameType"`
	Seat     int    `json:"seat"`
}

type proposeSentFrame struct {
	Type     string `json:"type"`
	GameType string `json:"gameType"`
}

type plainFrame struct {
	Type string `json:"type"`
}
