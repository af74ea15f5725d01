package services

import (
	"context"
	"errors"

	"filmdom/internal/models"
	"filmdom/internal/repositories"
	"filmdom/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// GenreSyncService reconciles the stored genre taxonomy against the
// provider's canonical list. It must complete before any movie resolution:
// movie-to-genre association requires the genre rows to already exist with
// the provider's ids.
type GenreSyncService struct {
	tmdb      TMDBClient
	genreRepo repositories.GenreRepository
	log       logger.Logger
}

func NewGenreSyncService(
	tmdb TMDBClient,
	genreRepo repositories.GenreRepository,
) *GenreSyncService {
	return &GenreSyncService{
		tmdb:      tmdb,
		genreRepo: genreRepo,
		log:       logger.New("genreSyncService"),
	}
}

// Sync fetches the provider taxonomy and reconciles every pair. Any failure
// is run-fatal; a partially synchronized taxonomy must not feed resolution.
func (s *GenreSyncService) Sync(ctx context.Context) error {
	log := s.log.Function("Sync")

	genres, err := s.tmdb.FetchGenres(ctx)
	if err != nil {
		return log.Err("failed to fetch provider genre taxonomy", err)
	}

	for _, genre := range genres {
		if err := s.reconcile(ctx, genre); err != nil {
			return log.Err("failed to reconcile genre", err, "id", genre.ID, "name", genre.Name)
		}
	}

	log.Info("Genre taxonomy synchronized", "genres", len(genres))
	return nil
}

// reconcile applies one provider pair: an exact (id, name) match is a no-op;
// otherwise every row colliding on id or name is removed and the
// authoritative pair inserted. Genre ids stay stable across provider renames
// this way, and a reused name cannot violate the name uniqueness constraint.
func (s *GenreSyncService) reconcile(ctx context.Context, genre types.ProviderGenre) error {
	log := s.log.Function("reconcile")

	_, err := s.genreRepo.GetByIDAndName(ctx, genre.ID, genre.Name)
	if err == nil {
		log.Debug("Genre already stored with matching id and name, no operation",
			"id", genre.ID, "name", genre.Name)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.genreRepo.DeleteByIDOrName(ctx, genre.ID, genre.Name); err != nil {
		return err
	}

	if err := s.genreRepo.Create(ctx, &models.MovieGenre{ID: genre.ID, Name: genre.Name}); err != nil {
		return err
	}

	log.Info("Stored authoritative genre", "id", genre.ID, "name", genre.Name)
	return nil
}
