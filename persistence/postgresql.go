// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/discarena/models"
)

// PostgreSQL is the plain database/sql implementation, selectable with
// database.driver: "sql".
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS match_records (
            id SERIAL PRIMARY KEY,
            match_id TEXT UNIQUE NOT NULL,
            winner TEXT NOT NULL,
            winner_score INT DEFAULT 0,
            loser_score INT DEFAULT 0,
            forfeit BOOLEAN DEFAULT FALSE,
            duration_ms BIGINT DEFAULT 0,
            created_at TIMESTAMPTZ DEFAULT now()
        );
        CREATE TABLE IF NOT EXISTS match_players (
            id SERIAL PRIMARY KEY,
            match_id TEXT NOT NULL,
            nick TEXT NOT NULL,
            team TEXT NOT NULL,
            outcome TEXT NOT NULL,
            points INT DEFAULT 0,
            forfeit BOOLEAN DEFAULT FALSE
        );
        CREATE INDEX IF NOT EXISTS idx_match_players_nick ON match_players (nick);
    `)
	return err
}

// SaveMatchRecord 保存对局记录
func (p *PostgreSQL) SaveMatchRecord(rec *models.MatchRecord) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO match_records (match_id, winner, winner_score, loser_score, forfeit, duration_ms)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.MatchID, rec.Winner, rec.WinnerScore, rec.LoserScore, rec.Forfeit, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return err
	}

	for _, player := range rec.Players {
		_, err = tx.Exec(
			`INSERT INTO match_players (match_id, nick, team, outcome, points, forfeit)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.MatchID, player.Nick, player.Team, player.Outcome, player.Points,
			rec.Forfeit && player.Outcome == "lose",
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPlayerStats 查询玩家统计
func (p *PostgreSQL) GetPlayerStats(nick string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.QueryRow(
		`SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN outcome = 'win' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN outcome = 'lose' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN forfeit THEN 1 ELSE 0 END), 0)
         FROM match_players WHERE nick = $1`,
		nick,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Forfeits)
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}

	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
