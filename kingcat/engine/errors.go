package engine

import "errors"

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidGameStart = errors.New("invalid game start")
	ErrGameOver         = errors.New("game is over")
	ErrIllegalAction    = errors.New("action not allowed now")
)
