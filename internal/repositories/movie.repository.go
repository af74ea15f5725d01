package repositories

import (
	"context"
	"errors"
	"fmt"

	"filmdom/internal/database"
	"filmdom/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// ErrDuplicateTitle is returned by Create when another record already holds
// the title. Expected under concurrent resolution; callers treat it as a skip.
var ErrDuplicateTitle = errors.New("movie with this title already exists")

type MovieRepository interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Create(ctx context.Context, movie *models.Movie) error
	AttachGenresByIDs(ctx context.Context, movie *models.Movie, genreIDs []int) error
	Count(ctx context.Context) (int64, error)
}

type movieRepository struct {
	db  database.DB
	log logger.Logger
}

func NewMovieRepository(db database.DB) MovieRepository {
	return &movieRepository{
		db:  db,
		log: logger.New("movieRepository"),
	}
}

func (r *movieRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	log := r.log.Function("ExistsByTitle")

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&models.Movie{}).
		Where("title = ?", title).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to check movie existence", err, "title", title)
	}

	return count > 0, nil
}

func (r *movieRepository) Create(ctx context.Context, movie *models.Movie) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(movie).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateTitle, movie.Title)
		}
		return log.Err("failed to create movie", err, "title", movie.Title)
	}

	return nil
}

func (r *movieRepository) AttachGenresByIDs(
	ctx context.Context,
	movie *models.Movie,
	genreIDs []int,
) error {
	log := r.log.Function("AttachGenresByIDs")

	if len(genreIDs) == 0 {
		return nil
	}

	var genres []models.MovieGenre
	if err := r.db.SQLWithContext(ctx).
		Where("id IN ?", genreIDs).
		Find(&genres).Error; err != nil {
		return log.Err("failed to load genres for association", err, "genreIds", genreIDs)
	}

	// Ids the synchronizer never stored are silently dropped; the taxonomy
	// sync is authoritative for which genres exist.
	if len(genres) == 0 {
		return nil
	}

	if err := r.db.SQLWithContext(ctx).
		Model(movie).
		Association("Genres").
		Append(&genres); err != nil {
		return log.Err("failed to attach genres", err, "title", movie.Title, "genreIds", genreIDs)
	}

	return nil
}

func (r *movieRepository) Count(ctx context.Context) (int64, error) {
	log := r.log.Function("Count")

	var count int64
	if err := r.db.SQLWithContext(ctx).Model(&models.Movie{}).Count(&count).Error; err != nil {
		return 0, log.Err("failed to count movies", err)
	}

	return count, nil
}
