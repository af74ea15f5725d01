package jobs

import (
	"filmdom/internal/repositories"
	"filmdom/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// RegisterAllJobs wires every background job into the scheduler.
func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	svc services.Service,
	repos repositories.Repository,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")
	log.Info("Registering jobs")

	catalogIngestJob := NewCatalogIngestJob(
		svc.TMDB,
		svc.GenreSync,
		svc.Ingest,
		svc.RunLock,
		repos.IngestionRun,
		services.Daily,
	)
	if err := schedulerService.AddJob(catalogIngestJob); err != nil {
		return log.Err("failed to register catalog ingest job", err)
	}
	log.Info("Registered catalog ingest job", "schedule", "daily")

	return nil
}
