package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"filmdom/config"
	"filmdom/internal/models"
	"filmdom/internal/repositories"
	"filmdom/internal/types"
	"filmdom/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

var (
	// ErrIdentityMismatch marks a detail response whose title differs from
	// the requested stub's title. Per-item recoverable: the stub is skipped
	// and the run continues.
	ErrIdentityMismatch = errors.New("provider returned a different movie than requested")

	// ErrInvalidReleaseDate marks a detail payload without a usable release
	// date. Per-item recoverable.
	ErrInvalidReleaseDate = errors.New("movie detail has missing or malformed release date")
)

// IngestService resolves export stubs into stored movie records. Every stub
// runs the same independent sequence: existence check, detail fetch, identity
// verification, date validation, create, genre association. Item failures are
// isolated and logged; they never abort the run.
type IngestService struct {
	config    config.Config
	tmdb      TMDBClient
	movieRepo repositories.MovieRepository
	log       logger.Logger
}

func NewIngestService(
	cfg config.Config,
	tmdb TMDBClient,
	movieRepo repositories.MovieRepository,
) *IngestService {
	return &IngestService{
		config:    cfg,
		tmdb:      tmdb,
		movieRepo: movieRepo,
		log:       logger.New("ingestService"),
	}
}

type ingestCounters struct {
	created            atomic.Int64
	skippedExisting    atomic.Int64
	skippedInvalidDate atomic.Int64
	skippedMismatch    atomic.Int64
	skippedDuplicate   atomic.Int64
	failed             atomic.Int64
	processed          atomic.Int64
}

func (c *ingestCounters) toStats(total int) models.RunStats {
	return models.RunStats{
		StubsTotal:         int64(total),
		StubsProcessed:     c.processed.Load(),
		Created:            c.created.Load(),
		SkippedExisting:    c.skippedExisting.Load(),
		SkippedInvalidDate: c.skippedInvalidDate.Load(),
		SkippedMismatch:    c.skippedMismatch.Load(),
		SkippedDuplicate:   c.skippedDuplicate.Load(),
		Failed:             c.failed.Load(),
	}
}

// ResolveAll fans the stubs out over a fixed-size worker pool and joins every
// launched resolution before returning. The pool size and per-run cap are
// configuration values; the run is not finished until all workers drain.
func (s *IngestService) ResolveAll(
	ctx context.Context,
	stubs []types.MovieStub,
) models.RunStats {
	log := s.log.Function("ResolveAll")

	total := len(stubs)
	if s.config.IngestMaxMovies > 0 && len(stubs) > s.config.IngestMaxMovies {
		log.Info("Capping stubs for this run",
			"available", len(stubs),
			"cap", s.config.IngestMaxMovies,
		)
		stubs = stubs[:s.config.IngestMaxMovies]
	}

	workers := s.config.IngestWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(stubs) {
		workers = len(stubs)
	}

	counters := &ingestCounters{}
	if len(stubs) == 0 {
		return counters.toStats(total)
	}

	log.Info("Starting movie resolution fan-out", "stubs", len(stubs), "workers", workers)

	work := make(chan types.MovieStub)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stub := range work {
				s.resolveOne(ctx, stub, counters)
				counters.processed.Add(1)
			}
		}()
	}

feed:
	for _, stub := range stubs {
		select {
		case <-ctx.Done():
			log.Warn("Resolution cancelled, draining in-flight work", "error", ctx.Err())
			break feed
		case work <- stub:
		}
	}
	close(work)
	wg.Wait()

	stats := counters.toStats(total)
	log.Info("Movie resolution finished",
		"created", stats.Created,
		"skippedExisting", stats.SkippedExisting,
		"skippedInvalidDate", stats.SkippedInvalidDate,
		"skippedMismatch", stats.SkippedMismatch,
		"skippedDuplicate", stats.SkippedDuplicate,
		"failed", stats.Failed,
	)
	return stats
}

// resolveOne runs one stub's full resolution sequence. It never returns an
// error: every outcome is counted and logged here, keeping item failures
// isolated from the rest of the run.
func (s *IngestService) resolveOne(
	ctx context.Context,
	stub types.MovieStub,
	counters *ingestCounters,
) {
	log := s.log.Function("resolveOne")

	exists, err := s.movieRepo.ExistsByTitle(ctx, stub.OriginalTitle)
	if err != nil {
		counters.failed.Add(1)
		log.Er("existence check failed", err, "title", stub.OriginalTitle, "movieId", stub.ID)
		return
	}
	if exists {
		counters.skippedExisting.Add(1)
		log.Debug("Movie already stored, skipping", "title", stub.OriginalTitle)
		return
	}

	detail, err := s.tmdb.FetchMovieDetail(ctx, stub.ID)
	if err != nil {
		counters.failed.Add(1)
		log.Er("detail fetch failed, skipping movie", err,
			"title", stub.OriginalTitle, "movieId", stub.ID)
		return
	}

	movie, err := s.buildMovie(stub, detail)
	if err != nil {
		switch {
		case errors.Is(err, ErrIdentityMismatch):
			counters.skippedMismatch.Add(1)
			log.Warn("Skipping movie with mismatched identity", "error", err, "movieId", stub.ID)
		case errors.Is(err, ErrInvalidReleaseDate):
			counters.skippedInvalidDate.Add(1)
			log.Info("Skipping movie without a valid release date",
				"error", err, "title", stub.OriginalTitle)
		default:
			counters.failed.Add(1)
			log.Er("failed to assemble movie record", err, "title", stub.OriginalTitle)
		}
		return
	}

	if err := s.movieRepo.Create(ctx, movie); err != nil {
		if errors.Is(err, repositories.ErrDuplicateTitle) {
			// Another resolution task, or a previous partial run, won the
			// race for this title. The record exists, nothing to repair.
			counters.skippedDuplicate.Add(1)
			log.Debug("Movie created concurrently, skipping", "title", stub.OriginalTitle)
			return
		}
		counters.failed.Add(1)
		log.Er("failed to create movie", err, "title", stub.OriginalTitle)
		return
	}

	if err := s.movieRepo.AttachGenresByIDs(ctx, movie, detail.GenreIDs()); err != nil {
		// The record itself is stored; a failed association is logged but
		// does not undo the create.
		log.Er("failed to attach genres", err, "title", stub.OriginalTitle)
	}

	counters.created.Add(1)
	log.Debug("Movie stored", "title", stub.OriginalTitle, "movieId", stub.ID)
}

// buildMovie verifies the fetched detail against the requested stub and
// assembles the record to store. Verification failures carry the matching
// sentinel so the caller can branch with errors.Is.
func (s *IngestService) buildMovie(
	stub types.MovieStub,
	detail *types.MovieDetail,
) (*models.Movie, error) {
	if detail.OriginalTitle != stub.OriginalTitle {
		return nil, fmt.Errorf("%w: requested %q, received %q",
			ErrIdentityMismatch, stub.OriginalTitle, detail.OriginalTitle)
	}

	produceDate, err := utils.ParseReleaseDate(detail.ReleaseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReleaseDate, detail.ReleaseDate)
	}

	return &models.Movie{
		Title:           detail.OriginalTitle,
		ProduceDate:     produceDate,
		RemoteThumbnail: s.tmdb.ThumbnailURL(detail.PosterPath),
		Overview:        detail.Overview,
	}, nil
}
