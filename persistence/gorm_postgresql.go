// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/discarena/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormMatchRecord{},
		&models.GormMatchPlayer{},
	)
}

// SaveMatchRecord persists a finished match and its per-player rows in one
// transaction.
func (p *GormPostgreSQL) SaveMatchRecord(rec *models.MatchRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormMatchRecord{
			MatchID:     rec.MatchID,
			Winner:      rec.Winner,
			WinnerScore: rec.WinnerScore,
			LoserScore:  rec.LoserScore,
			Forfeit:     rec.Forfeit,
			DurationMS:  rec.Duration.Milliseconds(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for _, player := range rec.Players {
			playerRow := models.GormMatchPlayer{
				MatchID: rec.MatchID,
				Nick:    player.Nick,
				Team:    player.Team,
				Outcome: player.Outcome,
				Points:  player.Points,
				Forfeit: rec.Forfeit && player.Outcome == "lose",
			}
			if err := tx.Create(&playerRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPlayerStats aggregates a player's match history by nick.
func (p *GormPostgreSQL) GetPlayerStats(nick string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(
		`
        SELECT
            COUNT(*) as total_games,
            SUM(CASE WHEN outcome = 'win' THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN outcome = 'lose' THEN 1 ELSE 0 END) as losses,
            SUM(CASE WHEN forfeit THEN 1 ELSE 0 END) as forfeits
        FROM gorm_match_players
        WHERE nick = ?`,
		nick,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}

	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
