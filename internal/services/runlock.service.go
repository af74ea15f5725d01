package services

import (
	"context"

	"filmdom/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

const runLockKey = "ingest:run-lock"

// releaseLockScript deletes the lock only while the caller still holds it.
// A plain GET-then-DEL races the TTL: the lock can expire and be re-acquired
// between the two commands, and the DEL would then drop the new holder's lock.
const releaseLockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// RunLockService guards against overlapping ingestion runs with a cache-side
// lock. A run that exceeds its trigger interval simply causes the next
// trigger to skip; the TTL releases the lock if a holder crashes without
// cleaning up.
type RunLockService struct {
	cache  database.CacheClient
	ttlSec int
	log    logger.Logger
}

func NewRunLockService(cache database.CacheClient, ttlSec int) *RunLockService {
	return &RunLockService{
		cache:  cache,
		ttlSec: ttlSec,
		log:    logger.New("runLockService"),
	}
}

// Acquire attempts to take the run lock for the given run id. It returns
// false without error when another run already holds the lock.
func (s *RunLockService) Acquire(ctx context.Context, runID string) (bool, error) {
	log := s.log.Function("Acquire")

	cmd := s.cache.B().Set().
		Key(runLockKey).
		Value(runID).
		Nx().
		ExSeconds(int64(s.ttlSec)).
		Build()

	if err := s.cache.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, log.Err("failed to acquire run lock", err, "runId", runID)
	}

	log.Info("Run lock acquired", "runId", runID, "ttlSec", s.ttlSec)
	return true, nil
}

// Release drops the lock if this run still holds it, in one atomic step. A
// lock taken over by a later run (after TTL expiry) is left alone.
func (s *RunLockService) Release(ctx context.Context, runID string) error {
	log := s.log.Function("Release")

	cmd := s.cache.B().Eval().
		Script(releaseLockScript).
		Numkeys(1).
		Key(runLockKey).
		Arg(runID).
		Build()

	deleted, err := s.cache.Do(ctx, cmd).AsInt64()
	if err != nil {
		return log.Err("failed to release run lock", err, "runId", runID)
	}

	if deleted == 0 {
		log.Warn("Run lock no longer held by this run, leaving it in place", "runId", runID)
		return nil
	}

	log.Info("Run lock released", "runId", runID)
	return nil
}

// IsHeld reports whether any run currently holds the lock.
func (s *RunLockService) IsHeld(ctx context.Context) (bool, error) {
	log := s.log.Function("IsHeld")

	count, err := s.cache.Do(ctx, s.cache.B().Exists().Key(runLockKey).Build()).AsInt64()
	if err != nil {
		return false, log.Err("failed to check run lock", err)
	}

	return count > 0, nil
}
