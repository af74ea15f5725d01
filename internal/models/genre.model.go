package models

import (
	"time"

	"gorm.io/gorm"
)

// MovieGenre mirrors the provider's genre taxonomy. The id is assigned by the
// provider, not by the database, and serves as the foreign-key target for
// movie associations. Invariant: at most one row per id AND at most one row
// per name; reconciliation deletes a colliding row before inserting the
// authoritative pair.
type MovieGenre struct {
	ID        int       `gorm:"type:int;primaryKey;autoIncrement:false"         json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_genres_name"  json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime"                                  json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"                                  json:"updatedAt"`

	Movies []Movie `gorm:"many2many:movie_genre_associations;" json:"movies,omitempty"`
}

func (g *MovieGenre) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == 0 {
		return gorm.ErrInvalidValue
	}
	if g.Name == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
