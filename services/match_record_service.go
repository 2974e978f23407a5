// services/match_record_service.go
package services

import (
	"github.com/wfunc/discarena/logger"
	"github.com/wfunc/discarena/models"
	"github.com/wfunc/discarena/persistence"
)

// MatchRecordService persists finished matches and answers stats queries.
// A nil database turns it into a no-op so the server can run without
// postgres in development.
type MatchRecordService struct {
	db persistence.Database
}

func NewMatchRecordService(db persistence.Database) *MatchRecordService {
	return &MatchRecordService{db: db}
}

// SaveResult 保存对局结果；失败只记录日志，不影响对局流程
func (s *MatchRecordService) SaveResult(rec *models.MatchRecord) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveMatchRecord(rec); err != nil {
		logger.Log.Errorf("save match record %s: %v", rec.MatchID, err)
		return
	}
	logger.Log.Infof("saved match record %s (winner=%s forfeit=%v)", rec.MatchID, rec.Winner, rec.Forfeit)
}

// PlayerStats 查询玩家累计统计
func (s *MatchRecordService) PlayerStats(nick string) (*models.PlayerStats, error) {
	if s.db == nil {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.GetPlayerStats(nick)
}
