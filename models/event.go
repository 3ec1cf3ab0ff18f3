package models

import "encoding/json"

// Envelope is the wire format of every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// クライアントから送られるイベント
const (
	CreateRoom     = "CREATE_ROOM"
	JoinRoom       = "JOIN_ROOM"
	StartGame      = "START_GAME"
	CardPlayed     = "CARD_PLAYED"
	PlayerSelected = "PLAYER_SELECTED"
	InsertCard     = "INSERT_CARD"
	SwitchCard     = "SWITCH_CARD"
)

// サーバーから送るイベント
const (
	RoomCreated         = "ROOM_CREATED"
	RoomFound           = "ROOM_FOUND"
	RoomNotFound        = "ROOM_NOT_FOUND"
	GameStarted         = "GAME_STARTED"
	NextTurn            = "NEXT_TURN"
	OpenPlayerSelection = "OPEN_PLAYER_SELECTION"
	OpenCardSelection   = "OPEN_CARD_SELECTION"
	OpenCardView        = "OPEN_CARD_VIEW"
	GameOver            = "GAME_OVER"
	Error               = "ERROR"
)

// OutboundEvent is marshalled once per send.
type OutboundEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
