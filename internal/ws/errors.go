package ws

import "errors"

// ошибки, которые клиент получает кадром {"type":"error","msg":...}
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrUnknownGame  = errors.New("unknown game type")

	errRoomClosed = errors.New("room closed")
)
