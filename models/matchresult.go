package models

import (
	"gorm.io/gorm"
)

// MatchResult は終了した試合の記録
type MatchResult struct {
	gorm.Model
	RoomCode   string `gorm:"index;not null"`
	WinnerID   string `gorm:"not null"`
	WinnerName string
	PlayerIDs  string `gorm:"not null"` // カンマ区切り、手番順
	Turns      int
	Showdown   bool // 山札切れの決着かどうか
}
