package app

import (
	"context"

	"filmdom/config"
	"filmdom/internal/database"
	"filmdom/internal/jobs"
	"filmdom/internal/repositories"
	"filmdom/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database database.DB
	Config   config.Config
	Services services.Service
	Repos    repositories.Repository
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	if err := db.MigrateModels(); err != nil {
		return &App{}, log.Err("failed to migrate database", err)
	}

	repos := repositories.New(db)
	svc := services.New(db, config, repos)

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(svc.Scheduler, svc, repos); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}

		if err := svc.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	} else {
		log.Info("Scheduler disabled, ingestion runs only on manual trigger")
	}

	app := &App{
		Database: db,
		Config:   config,
		Services: svc,
		Repos:    repos,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")

	if a.Database.SQL == nil {
		return log.Errorf("app validation failed", "database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.Errorf("app validation failed", "config is empty")
	}

	nilChecks := []any{
		a.Services.TMDB,
		a.Services.GenreSync,
		a.Services.Ingest,
		a.Services.RunLock,
		a.Services.Scheduler,
		a.Repos.Movie,
		a.Repos.Genre,
		a.Repos.IngestionRun,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.Errorf("app validation failed", "nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
