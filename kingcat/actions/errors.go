package actions

import (
	"errors"

	"kingcatserver/kingcat/engine"
	"kingcatserver/kingcat/session"
)

var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrMalformedEvent = errors.New("malformed event")
)

// ErrorPayload is the data of an ERROR event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err  error
	code string
}{
	{session.ErrRoomNotFound, "ROOM_NOT_FOUND"},
	{session.ErrNotRoomAdmin, "NOT_ROOM_ADMIN"},
	{session.ErrSeatTaken, "SEAT_TAKEN"},
	{engine.ErrInvalidGameStart, "INVALID_GAME_START"},
	{engine.ErrPlayerNotFound, "PLAYER_NOT_FOUND"},
	{engine.ErrGameOver, "GAME_OVER"},
	{engine.ErrIllegalAction, "ILLEGAL_ACTION"},
	{engine.ErrDeckExhausted, "DECK_EXHAUSTED"},
	{ErrNotYourTurn, "NOT_YOUR_TURN"},
	{ErrUnknownEvent, "UNKNOWN_EVENT"},
	{ErrMalformedEvent, "MALFORMED_EVENT"},
}

// ErrorCode maps an error to the code sent to clients.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}
