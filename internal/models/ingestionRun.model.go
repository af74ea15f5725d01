package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunStats is the per-run outcome breakdown persisted as the Stats JSON blob.
type RunStats struct {
	StubsTotal         int64 `json:"stubsTotal"`
	StubsProcessed     int64 `json:"stubsProcessed"`
	Created            int64 `json:"created"`
	SkippedExisting    int64 `json:"skippedExisting"`
	SkippedInvalidDate int64 `json:"skippedInvalidDate"`
	SkippedMismatch    int64 `json:"skippedMismatch"`
	SkippedDuplicate   int64 `json:"skippedDuplicate"`
	Failed             int64 `json:"failed"`
}

// IngestionRun is the bookkeeping row for one execution of the catalog
// ingestion pipeline.
type IngestionRun struct {
	BaseModel
	RunID        string         `gorm:"type:text;not null;uniqueIndex:idx_ingestion_runs_run_id" json:"runId"`
	Status       RunStatus      `gorm:"type:text;not null;index:idx_ingestion_runs_status"       json:"status"`
	Stats        datatypes.JSON `gorm:"type:jsonb"                                               json:"stats"`
	ErrorMessage *string        `gorm:"type:text"                                                json:"errorMessage,omitempty"`
	StartedAt    *time.Time     `json:"startedAt,omitempty"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
}

func (r *IngestionRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.RunID == "" {
		return gorm.ErrInvalidValue
	}
	if r.Status == "" {
		r.Status = RunStatusRunning
	}
	return nil
}

// SetStats serializes the run outcome into the Stats column.
func (r *IngestionRun) SetStats(stats RunStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	r.Stats = datatypes.JSON(raw)
	return nil
}

// GetStats deserializes the Stats column; an empty column yields zero stats.
func (r *IngestionRun) GetStats() (RunStats, error) {
	var stats RunStats
	if len(r.Stats) == 0 {
		return stats, nil
	}
	err := json.Unmarshal(r.Stats, &stats)
	return stats, err
}

// MarkCompleted transitions the run to its terminal success state.
func (r *IngestionRun) MarkCompleted() {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.FinishedAt = &now
}

// MarkFailed transitions the run to its terminal failure state.
func (r *IngestionRun) MarkFailed(runErr error) {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	if runErr != nil {
		msg := runErr.Error()
		r.ErrorMessage = &msg
	}
}
