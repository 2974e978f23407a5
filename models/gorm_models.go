// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormMatchRecord 对局记录表
type GormMatchRecord struct {
	gorm.Model
	MatchID     string `gorm:"uniqueIndex;not null"`
	Winner      string `gorm:"not null"`
	WinnerScore int    `gorm:"default:0"`
	LoserScore  int    `gorm:"default:0"`
	Forfeit     bool   `gorm:"default:false"`
	DurationMS  int64  `gorm:"default:0"`
}

// GormMatchPlayer 对局玩家表
type GormMatchPlayer struct {
	gorm.Model
	MatchID string `gorm:"index;not null"`
	Nick    string `gorm:"index;not null"`
	Team    string `gorm:"not null"`
	Outcome string `gorm:"not null"` // win/lose
	Points  int    `gorm:"default:0"`
	Forfeit bool   `gorm:"default:false"`
}
