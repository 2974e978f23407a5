package main

import (
	"github.com/wfunc/discarena/config"
	"github.com/wfunc/discarena/logger"
	"github.com/wfunc/discarena/persistence"
	"github.com/wfunc/discarena/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database. The server runs without persistence when the
	// database is unreachable; match records are simply not saved.
	var db persistence.Database
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "sql":
		db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	if err != nil {
		logger.Log.Warnf("Database unavailable, match records disabled: %v", err)
		db = nil
	} else {
		logger.Log.Info("Database connection successful.")
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, db)

	// Start Server
	logger.Log.Infof("Starting arena server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
