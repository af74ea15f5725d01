package services

import (
	"filmdom/config"
	"filmdom/internal/database"
	"filmdom/internal/repositories"
)

type Service struct {
	TMDB      *TMDBService
	GenreSync *GenreSyncService
	Ingest    *IngestService
	RunLock   *RunLockService
	Scheduler *SchedulerService
}

func New(db database.DB, config config.Config, repos repositories.Repository) Service {
	tmdbService := NewTMDBService(config)
	genreSyncService := NewGenreSyncService(tmdbService, repos.Genre)
	ingestService := NewIngestService(config, tmdbService, repos.Movie)
	runLockService := NewRunLockService(db.Cache, config.IngestLockTTLSec)
	schedulerService := NewSchedulerService(config.IngestHour, config.IngestMinute)

	return Service{
		TMDB:      tmdbService,
		GenreSync: genreSyncService,
		Ingest:    ingestService,
		RunLock:   runLockService,
		Scheduler: schedulerService,
	}
}
