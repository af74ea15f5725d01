package types

// MovieStub is one line of the TMDB daily export: just enough to identify a
// movie, never enough to create a record.
type MovieStub struct {
	ID            int64   `json:"id"`
	OriginalTitle string  `json:"original_title"`
	Popularity    float64 `json:"popularity"`
	Adult         bool    `json:"adult"`
	Video         bool    `json:"video"`
}

// MovieDetail is the full per-movie payload fetched individually.
type MovieDetail struct {
	ID            int64             `json:"id"`
	OriginalTitle string            `json:"original_title"`
	ReleaseDate   string            `json:"release_date"`
	Overview      string            `json:"overview"`
	PosterPath    string            `json:"poster_path"`
	Genres        []MovieDetailGenre `json:"genres"`
}

type MovieDetailGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProviderGenre is one entry of the canonical genre taxonomy. The id is
// provider-assigned and stable across runs.
type ProviderGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GenreListResponse struct {
	Genres []ProviderGenre `json:"genres"`
}

// GenreIDs returns the ids of the detail's genre entries, for association
// against already-synchronized genre rows.
func (d *MovieDetail) GenreIDs() []int {
	ids := make([]int, 0, len(d.Genres))
	for _, g := range d.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}
