package services

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"filmdom/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTMDBConfig(apiHost, exportHost string) config.Config {
	return config.Config{
		TMDBAPIKey:           "test-key",
		TMDBAPIHost:          apiHost,
		TMDBExportHost:       exportHost,
		TMDBImageHost:        "https://image.example.com/t/p/original",
		IngestRetryAttempts:  1,
		IngestHTTPTimeoutSec: 5,
	}
}

func TestDailyExportURL(t *testing.T) {
	service := NewTMDBService(testTMDBConfig("https://api.example.com/3", "http://files.example.com/p"))

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	url := service.DailyExportURL(now)

	// The provider only guarantees yesterday's snapshot.
	assert.Equal(t, "http://files.example.com/p/exports/movie_ids_08_31_2026.json.gz", url)
}

func TestDailyExportURL_CrossesMonthBoundary(t *testing.T) {
	service := NewTMDBService(testTMDBConfig("https://api.example.com/3", "http://files.example.com/p"))

	now := time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)
	url := service.DailyExportURL(now)

	assert.Equal(t, "http://files.example.com/p/exports/movie_ids_02_28_2026.json.gz", url)
}

func TestThumbnailURL(t *testing.T) {
	service := NewTMDBService(testTMDBConfig("https://api.example.com/3", "http://files.example.com/p"))

	assert.Equal(t,
		"https://image.example.com/t/p/original/abc123.jpg",
		service.ThumbnailURL("/abc123.jpg"),
	)
	assert.Equal(t,
		"https://image.example.com/t/p/original/abc123.jpg",
		service.ThumbnailURL("abc123.jpg"),
	)
	assert.Equal(t, "", service.ThumbnailURL(""))
}

func TestParseExportBody(t *testing.T) {
	t.Run("line delimited records with trailing separator", func(t *testing.T) {
		// The provider body is not one valid JSON document: individually
		// valid objects joined by line breaks, with a dangling newline.
		body := `{"adult":false,"id":1,"original_title":"First Movie","popularity":1.5,"video":false}
{"adult":false,"id":2,"original_title":"Second Movie","popularity":2.5,"video":false}
`
		stubs, err := parseExportBody([]byte(body))

		require.NoError(t, err)
		require.Len(t, stubs, 2)
		assert.Equal(t, int64(1), stubs[0].ID)
		assert.Equal(t, "First Movie", stubs[0].OriginalTitle)
		assert.Equal(t, int64(2), stubs[1].ID)
		assert.Equal(t, "Second Movie", stubs[1].OriginalTitle)
	})

	t.Run("windows line endings", func(t *testing.T) {
		body := "{\"id\":7,\"original_title\":\"CRLF Movie\"}\r\n{\"id\":8,\"original_title\":\"Other\"}\r\n"

		stubs, err := parseExportBody([]byte(body))

		require.NoError(t, err)
		require.Len(t, stubs, 2)
		assert.Equal(t, "CRLF Movie", stubs[0].OriginalTitle)
	})

	t.Run("empty body", func(t *testing.T) {
		stubs, err := parseExportBody([]byte("\n"))

		require.NoError(t, err)
		assert.Empty(t, stubs)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := parseExportBody([]byte("this is not json\n"))

		assert.Error(t, err)
	})
}

func TestFetchDailyExport(t *testing.T) {
	t.Run("downloads and decompresses the export", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/exports/movie_ids_")
			assert.Contains(t, r.URL.Path, ".json.gz")

			gz := gzip.NewWriter(w)
			_, _ = fmt.Fprint(gz, "{\"id\":42,\"original_title\":\"Gzipped Movie\"}\n")
			require.NoError(t, gz.Close())
		}))
		defer server.Close()

		service := NewTMDBService(testTMDBConfig("https://api.example.com/3", server.URL))

		stubs, err := service.FetchDailyExport(context.Background())

		require.NoError(t, err)
		require.Len(t, stubs, 1)
		assert.Equal(t, int64(42), stubs[0].ID)
		assert.Equal(t, "Gzipped Movie", stubs[0].OriginalTitle)
	})

	t.Run("non-200 status aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		service := NewTMDBService(testTMDBConfig("https://api.example.com/3", server.URL))

		_, err := service.FetchDailyExport(context.Background())

		assert.Error(t, err)
	})

	t.Run("non-gzip body aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, "plain text, not gzip")
		}))
		defer server.Close()

		service := NewTMDBService(testTMDBConfig("https://api.example.com/3", server.URL))

		_, err := service.FetchDailyExport(context.Background())

		assert.Error(t, err)
	})
}

func TestFetchMovieDetail(t *testing.T) {
	t.Run("decodes the detail payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/movie/550", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			assert.Equal(t, "en-US", r.URL.Query().Get("language"))

			_, _ = fmt.Fprint(w, `{
				"id": 550,
				"original_title": "Fight Club",
				"release_date": "1999-10-15",
				"overview": "An insomniac office worker...",
				"poster_path": "/fc.jpg",
				"genres": [{"id": 18, "name": "Drama"}]
			}`)
		}))
		defer server.Close()

		service := NewTMDBService(testTMDBConfig(server.URL, "http://files.example.com/p"))

		detail, err := service.FetchMovieDetail(context.Background(), 550)

		require.NoError(t, err)
		assert.Equal(t, "Fight Club", detail.OriginalTitle)
		assert.Equal(t, "1999-10-15", detail.ReleaseDate)
		assert.Equal(t, []int{18}, detail.GenreIDs())
	})

	t.Run("retries server errors with bounded attempts", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = fmt.Fprint(w, `{"id": 1, "original_title": "Recovered", "release_date": "2000-01-01"}`)
		}))
		defer server.Close()

		cfg := testTMDBConfig(server.URL, "http://files.example.com/p")
		cfg.IngestRetryAttempts = 3
		service := NewTMDBService(cfg)

		detail, err := service.FetchMovieDetail(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, "Recovered", detail.OriginalTitle)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("gives up after exhausting attempts", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cfg := testTMDBConfig(server.URL, "http://files.example.com/p")
		cfg.IngestRetryAttempts = 2
		service := NewTMDBService(cfg)

		_, err := service.FetchMovieDetail(context.Background(), 1)

		assert.Error(t, err)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		cfg := testTMDBConfig(server.URL, "http://files.example.com/p")
		cfg.IngestRetryAttempts = 3
		service := NewTMDBService(cfg)

		_, err := service.FetchMovieDetail(context.Background(), 1)

		assert.Error(t, err)
		assert.Equal(t, int64(1), calls.Load())
	})
}

func TestFetchGenres(t *testing.T) {
	t.Run("decodes the taxonomy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/genre/movie/list", r.URL.Path)
			_, _ = fmt.Fprint(w, `{"genres": [{"id": 28, "name": "Action"}, {"id": 18, "name": "Drama"}]}`)
		}))
		defer server.Close()

		service := NewTMDBService(testTMDBConfig(server.URL, "http://files.example.com/p"))

		genres, err := service.FetchGenres(context.Background())

		require.NoError(t, err)
		require.Len(t, genres, 2)
		assert.Equal(t, 28, genres[0].ID)
		assert.Equal(t, "Action", genres[0].Name)
	})

	t.Run("non-200 status aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		service := NewTMDBService(testTMDBConfig(server.URL, "http://files.example.com/p"))

		_, err := service.FetchGenres(context.Background())

		assert.Error(t, err)
	})
}
