package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // "gorm" or "sql"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig 对局配置，构造 Match 时按值传入，不使用全局状态
type GameConfig struct {
	BoardWidth        int           `mapstructure:"board_width"`
	BoardHeight       int           `mapstructure:"board_height"`
	SafeZoneDepth     int           `mapstructure:"safe_zone_depth"`
	GoalWidth         int           `mapstructure:"goal_width"` // in grid columns
	WinningScore      int           `mapstructure:"winning_score"`
	PlayersPerTeam    int           `mapstructure:"players_per_team"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	WinScreenTimeout  time.Duration `mapstructure:"win_screen_timeout"`

	// Disc tuning. Speeds are in grid cells per second.
	DiscInitialSpeed  float64       `mapstructure:"disc_initial_speed"`
	DiscBounceSpeedup float64       `mapstructure:"disc_bounce_speedup"`
	DiscMaxSpeed      float64       `mapstructure:"disc_max_speed"`
	DiscMoveDelay     time.Duration `mapstructure:"disc_move_delay"`

	// MaxPlacedBlocks is read for compatibility with the old config format,
	// but the match enforces a hard cap of one active block per session.
	MaxPlacedBlocks int `mapstructure:"max_placed_blocks"`
}

// DefaultGameConfig 返回默认对局参数
func DefaultGameConfig() GameConfig {
	return GameConfig{
		BoardWidth:        12,
		BoardHeight:       20,
		SafeZoneDepth:     6,
		GoalWidth:         8,
		WinningScore:      7,
		PlayersPerTeam:    1,
		TickInterval:      50 * time.Millisecond,
		InactivityTimeout: 45 * time.Second,
		WinScreenTimeout:  7 * time.Second,
		DiscInitialSpeed:  2.0,
		DiscBounceSpeedup: 0.55,
		DiscMaxSpeed:      26.0,
		DiscMoveDelay:     750 * time.Millisecond,
		MaxPlacedBlocks:   3,
	}
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	defaults := DefaultGameConfig()
	viper.SetDefault("game.board_width", defaults.BoardWidth)
	viper.SetDefault("game.board_height", defaults.BoardHeight)
	viper.SetDefault("game.safe_zone_depth", defaults.SafeZoneDepth)
	viper.SetDefault("game.goal_width", defaults.GoalWidth)
	viper.SetDefault("game.winning_score", defaults.WinningScore)
	viper.SetDefault("game.players_per_team", defaults.PlayersPerTeam)
	viper.SetDefault("game.tick_interval", defaults.TickInterval)
	viper.SetDefault("game.inactivity_timeout", defaults.InactivityTimeout)
	viper.SetDefault("game.win_screen_timeout", defaults.WinScreenTimeout)
	viper.SetDefault("game.disc_initial_speed", defaults.DiscInitialSpeed)
	viper.SetDefault("game.disc_bounce_speedup", defaults.DiscBounceSpeedup)
	viper.SetDefault("game.disc_max_speed", defaults.DiscMaxSpeed)
	viper.SetDefault("game.disc_move_delay", defaults.DiscMoveDelay)
	viper.SetDefault("game.max_placed_blocks", defaults.MaxPlacedBlocks)
	viper.SetDefault("database.driver", "gorm")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
