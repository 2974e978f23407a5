// models/models.go
package models

import (
	"time"
)

// MatchRecord 对局结果记录
type MatchRecord struct {
	MatchID     string        `json:"match_id"`
	Winner      string        `json:"winner"` // team tag "a" or "b"
	WinnerScore int           `json:"winner_score"`
	LoserScore  int           `json:"loser_score"`
	Forfeit     bool          `json:"forfeit"`
	Duration    time.Duration `json:"duration"`
	Players     []PlayerInfo  `json:"players"`
	CreatedAt   time.Time     `json:"created_at"`
}

// PlayerInfo 对局中单个玩家的结果
type PlayerInfo struct {
	Nick    string `json:"nick"`
	Team    string `json:"team"`
	Outcome string `json:"outcome"` // win/lose
	Points  int    `json:"points"`
}

// PlayerStats 玩家累计统计
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Forfeits   int `json:"forfeits"`
}
