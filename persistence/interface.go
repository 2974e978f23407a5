// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/discarena/models"
)

// Database 对局记录存储接口
type Database interface {
	SaveMatchRecord(rec *models.MatchRecord) error
	GetPlayerStats(nick string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
