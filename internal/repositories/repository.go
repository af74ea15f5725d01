package repositories

import (
	"filmdom/internal/database"
)

type Repository struct {
	Movie        MovieRepository
	Genre        GenreRepository
	IngestionRun IngestionRunRepository
}

func New(db database.DB) Repository {
	return Repository{
		Movie:        NewMovieRepository(db),
		Genre:        NewGenreRepository(db),
		IngestionRun: NewIngestionRunRepository(db),
	}
}
