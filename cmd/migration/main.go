package main

import (
	"os"

	"filmdom/config"
	"filmdom/internal/database"

	logger "github.com/Bparsons0904/goLogger"
)

func main() {
	log := logger.New("migrations").Function("main")

	config, err := config.InitConfig()
	if err != nil {
		log.Er("failed to initialize config", err)
		os.Exit(1)
	}

	db, err := database.New(config)
	if err != nil {
		log.Er("failed to create database", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close database", err)
		}
	}()

	if err := db.MigrateModels(); err != nil {
		log.Er("failed to migrate models", err)
		os.Exit(1)
	}

	log.Info("Migration completed successfully")
}
