package models

import (
	"time"

	"gorm.io/gorm"
)

// Movie is a stored catalog record. Title uniqueness is enforced by the
// database and doubles as the ingestion idempotency signal: a title that is
// already present is never fetched or updated again.
type Movie struct {
	BaseUUIDModel
	Title           string    `gorm:"type:text;not null;uniqueIndex:idx_movies_title" json:"title"`
	ProduceDate     time.Time `gorm:"type:date;not null;index:idx_movies_produce_date" json:"produceDate"`
	RemoteThumbnail string    `gorm:"type:text" json:"remoteThumbnail"`
	Overview        string    `gorm:"type:text" json:"overview"`

	// The join table must not collide with the movie_genres table backing
	// the MovieGenre model itself.
	Genres []MovieGenre `gorm:"many2many:movie_genre_associations;" json:"genres,omitempty"`
}

func (m *Movie) BeforeCreate(tx *gorm.DB) (err error) {
	if m.Title == "" {
		return gorm.ErrInvalidValue
	}
	if m.ProduceDate.IsZero() {
		return gorm.ErrInvalidValue
	}
	return nil
}
