package repositories

import (
	"context"

	"filmdom/internal/database"
	"filmdom/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type GenreRepository interface {
	// GetByIDAndName returns the stored genre matching BOTH id and name, or
	// gorm.ErrRecordNotFound.
	GetByIDAndName(ctx context.Context, id int, name string) (*models.MovieGenre, error)

	// DeleteByIDOrName removes every stored genre whose id OR name collides
	// with the given pair, association rows included. Deleting before insert
	// is what keeps the taxonomy unique by id and by name across provider
	// renames and reused names.
	DeleteByIDOrName(ctx context.Context, id int, name string) error

	Create(ctx context.Context, genre *models.MovieGenre) error
	GetAll(ctx context.Context) ([]*models.MovieGenre, error)
}

type genreRepository struct {
	db  database.DB
	log logger.Logger
}

func NewGenreRepository(db database.DB) GenreRepository {
	return &genreRepository{
		db:  db,
		log: logger.New("genreRepository"),
	}
}

func (r *genreRepository) GetByIDAndName(
	ctx context.Context,
	id int,
	name string,
) (*models.MovieGenre, error) {
	var genre models.MovieGenre
	if err := r.db.SQLWithContext(ctx).
		First(&genre, "id = ? AND name = ?", id, name).Error; err != nil {
		// Not-found is the expected miss path during reconciliation; it is
		// surfaced unlogged for the caller to branch on.
		return nil, err
	}

	return &genre, nil
}

func (r *genreRepository) DeleteByIDOrName(ctx context.Context, id int, name string) error {
	log := r.log.Function("DeleteByIDOrName")

	err := r.db.SQLWithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []models.MovieGenre
		if err := tx.Where("id = ? OR name = ?", id, name).Find(&stale).Error; err != nil {
			return err
		}

		if len(stale) == 0 {
			return nil
		}

		// Association rows reference the genre id, so they go first.
		for i := range stale {
			if err := tx.Model(&stale[i]).Association("Movies").Clear(); err != nil {
				return err
			}
		}

		return tx.Where("id = ? OR name = ?", id, name).Delete(&models.MovieGenre{}).Error
	})
	if err != nil {
		return log.Err("failed to delete conflicting genres", err, "id", id, "name", name)
	}

	return nil
}

func (r *genreRepository) Create(ctx context.Context, genre *models.MovieGenre) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(genre).Error; err != nil {
		return log.Err("failed to create genre", err, "id", genre.ID, "name", genre.Name)
	}

	return nil
}

func (r *genreRepository) GetAll(ctx context.Context) ([]*models.MovieGenre, error) {
	log := r.log.Function("GetAll")

	var genres []*models.MovieGenre
	if err := r.db.SQLWithContext(ctx).Find(&genres).Error; err != nil {
		return nil, log.Err("failed to get all genres", err)
	}

	return genres, nil
}
