package repositories

import (
	"context"

	"filmdom/internal/database"
	"filmdom/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

type IngestionRunRepository interface {
	Create(ctx context.Context, run *models.IngestionRun) error
	Update(ctx context.Context, run *models.IngestionRun) error
	GetRecent(ctx context.Context, limit int) ([]*models.IngestionRun, error)
}

type ingestionRunRepository struct {
	db  database.DB
	log logger.Logger
}

func NewIngestionRunRepository(db database.DB) IngestionRunRepository {
	return &ingestionRunRepository{
		db:  db,
		log: logger.New("ingestionRunRepository"),
	}
}

func (r *ingestionRunRepository) Create(ctx context.Context, run *models.IngestionRun) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(run).Error; err != nil {
		return log.Err("failed to create ingestion run", err, "runId", run.RunID)
	}

	return nil
}

func (r *ingestionRunRepository) Update(ctx context.Context, run *models.IngestionRun) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(run).Error; err != nil {
		return log.Err("failed to update ingestion run", err, "runId", run.RunID)
	}

	return nil
}

func (r *ingestionRunRepository) GetRecent(
	ctx context.Context,
	limit int,
) ([]*models.IngestionRun, error) {
	log := r.log.Function("GetRecent")

	var runs []*models.IngestionRun
	if err := r.db.SQLWithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, log.Err("failed to get recent ingestion runs", err)
	}

	return runs, nil
}
