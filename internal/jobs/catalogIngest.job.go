package jobs

import (
	"context"
	"time"

	"filmdom/internal/models"
	"filmdom/internal/repositories"
	"filmdom/internal/services"
	"filmdom/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

const CatalogIngestJobName = "CatalogIngestion"

// ExportFetcher yields the day's catalog stubs from the provider bulk index.
type ExportFetcher interface {
	FetchDailyExport(ctx context.Context) ([]types.MovieStub, error)
}

// GenreSyncer reconciles the stored genre taxonomy; it must succeed before
// any movie resolution because movies reference genre ids.
type GenreSyncer interface {
	Sync(ctx context.Context) error
}

// MovieResolver fans out the per-stub resolution sequences and joins them.
type MovieResolver interface {
	ResolveAll(ctx context.Context, stubs []types.MovieStub) models.RunStats
}

// RunLocker serializes runs: a trigger that finds the lock held is skipped.
type RunLocker interface {
	Acquire(ctx context.Context, runID string) (bool, error)
	Release(ctx context.Context, runID string) error
}

type CatalogIngestJob struct {
	export   ExportFetcher
	genres   GenreSyncer
	resolver MovieResolver
	lock     RunLocker
	runRepo  repositories.IngestionRunRepository
	log      logger.Logger
	schedule services.Schedule
}

func NewCatalogIngestJob(
	export ExportFetcher,
	genres GenreSyncer,
	resolver MovieResolver,
	lock RunLocker,
	runRepo repositories.IngestionRunRepository,
	schedule services.Schedule,
) *CatalogIngestJob {
	log := logger.New("catalogIngestJob")
	log.Info("Creating new catalog ingest job", "schedule", schedule)

	return &CatalogIngestJob{
		export:   export,
		genres:   genres,
		resolver: resolver,
		lock:     lock,
		runRepo:  runRepo,
		log:      log,
		schedule: schedule,
	}
}

func (j *CatalogIngestJob) Name() string {
	return CatalogIngestJobName
}

func (j *CatalogIngestJob) Schedule() services.Schedule {
	return j.schedule
}

// Execute runs one complete ingestion: lock, genre sync, bulk index fetch,
// movie fan-out, join, bookkeeping. Run-fatal errors surface to the
// scheduler; per-item outcomes are already absorbed by the resolver.
func (j *CatalogIngestJob) Execute(ctx context.Context) error {
	runID := uuid.New().String()
	log := j.log.Function("Execute").With("runId", runID)

	acquired, err := j.lock.Acquire(ctx, runID)
	if err != nil {
		return log.Err("failed to acquire run lock", err)
	}
	if !acquired {
		log.Info("Another ingestion run is in progress, skipping this trigger")
		return nil
	}
	defer func() {
		// Release with a fresh context so a cancelled run still unlocks.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if releaseErr := j.lock.Release(releaseCtx, runID); releaseErr != nil {
			log.Er("failed to release run lock", releaseErr)
		}
	}()

	log.Info("Starting catalog ingestion run")

	now := time.Now().UTC()
	run := &models.IngestionRun{
		RunID:     runID,
		Status:    models.RunStatusRunning,
		StartedAt: &now,
	}
	if err := j.runRepo.Create(ctx, run); err != nil {
		return log.Err("failed to create ingestion run record", err)
	}

	if err := j.genres.Sync(ctx); err != nil {
		return j.failRun(ctx, run, log, "genre synchronization failed", err)
	}

	stubs, err := j.export.FetchDailyExport(ctx)
	if err != nil {
		return j.failRun(ctx, run, log, "bulk index fetch failed", err)
	}

	stats := j.resolver.ResolveAll(ctx, stubs)

	if err := run.SetStats(stats); err != nil {
		log.Er("failed to serialize run stats", err)
	}
	run.MarkCompleted()
	if err := j.runRepo.Update(ctx, run); err != nil {
		return log.Err("failed to finalize ingestion run record", err)
	}

	log.Info("Catalog ingestion run completed",
		"stubsTotal", stats.StubsTotal,
		"stubsProcessed", stats.StubsProcessed,
		"created", stats.Created,
		"skippedExisting", stats.SkippedExisting,
		"skippedInvalidDate", stats.SkippedInvalidDate,
		"skippedMismatch", stats.SkippedMismatch,
		"skippedDuplicate", stats.SkippedDuplicate,
		"failed", stats.Failed,
	)
	return nil
}

// failRun records a run-fatal error on the bookkeeping row before surfacing
// it to the scheduler. No checkpoint is kept; the next run starts fresh.
func (j *CatalogIngestJob) failRun(
	ctx context.Context,
	run *models.IngestionRun,
	log logger.Logger,
	msg string,
	runErr error,
) error {
	run.MarkFailed(runErr)
	if err := j.runRepo.Update(ctx, run); err != nil {
		log.Er("failed to record run failure", err)
	}
	return log.Err(msg, runErr)
}
