package services

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"filmdom/config"
	"filmdom/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	tmdbUserAgent = "Filmdom/1.0 (TMDB Catalog Sync)"

	// The export endpoint serves a multi-megabyte gzip blob; it gets a far
	// more generous timeout than the small per-movie detail calls.
	exportTimeoutSec = 600
)

// TMDBClient is the outbound provider surface consumed by the ingestion
// pipeline. TMDBService is the production implementation.
type TMDBClient interface {
	FetchDailyExport(ctx context.Context) ([]types.MovieStub, error)
	FetchMovieDetail(ctx context.Context, movieID int64) (*types.MovieDetail, error)
	FetchGenres(ctx context.Context) ([]types.ProviderGenre, error)
	ThumbnailURL(posterPath string) string
}

type TMDBService struct {
	config       config.Config
	detailClient *http.Client
	exportClient *http.Client
	log          logger.Logger
}

func NewTMDBService(cfg config.Config) *TMDBService {
	log := logger.New("tmdbService")

	transport := &http.Transport{
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
		MaxConnsPerHost: 100,
	}

	return &TMDBService{
		config: cfg,
		detailClient: &http.Client{
			Timeout:   time.Duration(cfg.IngestHTTPTimeoutSec) * time.Second,
			Transport: transport,
		},
		exportClient: &http.Client{
			Timeout:   exportTimeoutSec * time.Second,
			Transport: transport,
		},
		log: log,
	}
}

// DailyExportURL builds the bulk index locator for the day before now; the
// provider only guarantees yesterday's snapshot exists.
func (s *TMDBService) DailyExportURL(now time.Time) string {
	date := now.UTC().AddDate(0, 0, -1)
	return fmt.Sprintf(
		"%s/exports/movie_ids_%s.json.gz",
		s.config.TMDBExportHost,
		date.Format("01_02_2006"),
	)
}

func (s *TMDBService) movieDetailURL(movieID int64) string {
	return fmt.Sprintf(
		"%s/movie/%d?api_key=%s&language=en-US",
		s.config.TMDBAPIHost,
		movieID,
		s.config.TMDBAPIKey,
	)
}

func (s *TMDBService) genreListURL() string {
	return fmt.Sprintf(
		"%s/genre/movie/list?api_key=%s&language=en-US",
		s.config.TMDBAPIHost,
		s.config.TMDBAPIKey,
	)
}

// ThumbnailURL resolves a provider poster path to an absolute image URL.
func (s *TMDBService) ThumbnailURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/%s",
		strings.TrimSuffix(s.config.TMDBImageHost, "/"),
		strings.TrimPrefix(posterPath, "/"),
	)
}

// FetchDailyExport downloads and decompresses yesterday's bulk index and
// parses it into stubs. Any failure is run-fatal; the caller aborts the run.
func (s *TMDBService) FetchDailyExport(ctx context.Context) ([]types.MovieStub, error) {
	log := s.log.Function("FetchDailyExport")

	url := s.DailyExportURL(time.Now())
	log.Info("Downloading daily export", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, log.Err("failed to build export request", err, "url", url)
	}
	req.Header.Set("User-Agent", tmdbUserAgent)

	resp, err := s.exportClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to download daily export", err, "url", url)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("failed to close export response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Errorf(
			"failed to download daily export",
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, log.Err("failed to decompress daily export", err)
	}
	defer func() {
		if closeErr := gzReader.Close(); closeErr != nil {
			log.Warn("failed to close gzip reader", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(gzReader)
	if err != nil {
		return nil, log.Err("failed to read decompressed export", err)
	}

	stubs, err := parseExportBody(raw)
	if err != nil {
		return nil, log.Err("failed to parse daily export body", err)
	}

	log.Info("Daily export downloaded", "stubs", len(stubs))
	return stubs, nil
}

// parseExportBody reframes the export payload into a JSON document and
// decodes it. The body is not a valid document on its own: it is one JSON
// object per line with a dangling trailing separator, so the lines are joined
// with commas and wrapped in brackets before decoding.
func parseExportBody(raw []byte) ([]types.MovieStub, error) {
	body := strings.ReplaceAll(string(raw), "\r\n", "\n")
	body = strings.TrimRight(body, "\n \t")

	if body == "" {
		return []types.MovieStub{}, nil
	}

	framed := "[" + strings.ReplaceAll(body, "\n", ",") + "]"

	var stubs []types.MovieStub
	if err := json.Unmarshal([]byte(framed), &stubs); err != nil {
		return nil, fmt.Errorf("export body is not line-delimited JSON: %w", err)
	}

	return stubs, nil
}

// FetchMovieDetail fetches the full payload for one movie. Transient
// failures are retried with bounded attempts so a flaky fetch cannot stall
// the run; a still-failing movie is skipped by the caller.
func (s *TMDBService) FetchMovieDetail(
	ctx context.Context,
	movieID int64,
) (*types.MovieDetail, error) {
	log := s.log.Function("FetchMovieDetail")

	attempts := s.config.IngestRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * 2 * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		detail, retryable, err := s.fetchMovieDetailOnce(ctx, movieID)
		if err == nil {
			return detail, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}

		log.Warn("movie detail fetch failed, will retry",
			"movieId", movieID,
			"attempt", attempt,
			"maxAttempts", attempts,
			"error", err,
		)
	}

	return nil, fmt.Errorf("detail fetch exhausted %d attempts: %w", attempts, lastErr)
}

func (s *TMDBService) fetchMovieDetailOnce(
	ctx context.Context,
	movieID int64,
) (*types.MovieDetail, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.movieDetailURL(movieID), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", tmdbUserAgent)

	resp, err := s.detailClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("detail fetch returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("detail fetch returned status %d", resp.StatusCode)
	}

	var detail types.MovieDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, false, fmt.Errorf("malformed detail payload: %w", err)
	}

	return &detail, false, nil
}

// FetchGenres retrieves the provider's full genre taxonomy. A failure here is
// run-fatal: movies reference genre ids, so no movie may be resolved against
// an unsynchronized taxonomy.
func (s *TMDBService) FetchGenres(ctx context.Context) ([]types.ProviderGenre, error) {
	log := s.log.Function("FetchGenres")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.genreListURL(), nil)
	if err != nil {
		return nil, log.Err("failed to build genre list request", err)
	}
	req.Header.Set("User-Agent", tmdbUserAgent)

	resp, err := s.detailClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to fetch genre list", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("failed to close genre list response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Errorf(
			"failed to fetch genre list",
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		)
	}

	var genreList types.GenreListResponse
	if err := json.NewDecoder(resp.Body).Decode(&genreList); err != nil {
		return nil, log.Err("failed to decode genre list", err)
	}

	log.Info("Genre taxonomy fetched", "genres", len(genreList.Genres))
	return genreList.Genres, nil
}
