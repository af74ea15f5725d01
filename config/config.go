package config

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion   string `mapstructure:"GENERAL_VERSION"`
	Environment      string `mapstructure:"ENVIRONMENT"`
	ServerPort       int    `mapstructure:"SERVER_PORT"`
	DatabaseHost     string `mapstructure:"DB_HOST"`
	DatabasePort     int    `mapstructure:"DB_PORT"`
	DatabaseName     string `mapstructure:"DB_NAME"`
	DatabaseUser     string `mapstructure:"DB_USER"`
	DatabasePassword string `mapstructure:"DB_PASSWORD"`
	CacheAddress     string `mapstructure:"CACHE_ADDRESS"`
	CachePort        int    `mapstructure:"CACHE_PORT"`
	CorsAllowOrigins string `mapstructure:"CORS_ALLOW_ORIGINS"`

	TMDBAPIKey     string `mapstructure:"TMDB_API_KEY"`
	TMDBAPIHost    string `mapstructure:"TMDB_API_HOST"`
	TMDBExportHost string `mapstructure:"TMDB_EXPORT_HOST"`
	TMDBImageHost  string `mapstructure:"TMDB_IMAGE_HOST"`

	SchedulerEnabled     bool `mapstructure:"SCHEDULER_ENABLED"`
	IngestHour           int  `mapstructure:"INGEST_HOUR"`
	IngestMinute         int  `mapstructure:"INGEST_MINUTE"`
	IngestWorkers        int  `mapstructure:"INGEST_WORKERS"`
	IngestMaxMovies      int  `mapstructure:"INGEST_MAX_MOVIES"`
	IngestRetryAttempts  int  `mapstructure:"INGEST_RETRY_ATTEMPTS"`
	IngestHTTPTimeoutSec int  `mapstructure:"INGEST_HTTP_TIMEOUT_SEC"`
	IngestLockTTLSec     int  `mapstructure:"INGEST_LOCK_TTL_SEC"`
}

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	// Enable automatic environment variable reading first
	viper.AutomaticEnv()

	// Bind environment variables to config keys
	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"CACHE_ADDRESS", "CACHE_PORT",
		"CORS_ALLOW_ORIGINS",
		"TMDB_API_KEY", "TMDB_API_HOST", "TMDB_EXPORT_HOST", "TMDB_IMAGE_HOST",
		"SCHEDULER_ENABLED", "INGEST_HOUR", "INGEST_MINUTE",
		"INGEST_WORKERS", "INGEST_MAX_MOVIES", "INGEST_RETRY_ATTEMPTS",
		"INGEST_HTTP_TIMEOUT_SEC", "INGEST_LOCK_TTL_SEC",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	setDefaults()

	// Check if key environment variables are already set
	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		// Load base .env file
		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		// Load .env.local overrides if it exists
		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info("Successfully initialized config",
		"environment", config.Environment,
		"serverPort", config.ServerPort,
		"schedulerEnabled", config.SchedulerEnabled,
		"ingestWorkers", config.IngestWorkers,
		"ingestMaxMovies", config.IngestMaxMovies,
	)
	return config, nil
}

func setDefaults() {
	viper.SetDefault("TMDB_API_HOST", "https://api.themoviedb.org/3")
	viper.SetDefault("TMDB_EXPORT_HOST", "http://files.tmdb.org/p")
	viper.SetDefault("TMDB_IMAGE_HOST", "https://image.tmdb.org/t/p/original")
	viper.SetDefault("INGEST_HOUR", 7)
	viper.SetDefault("INGEST_MINUTE", 0)
	viper.SetDefault("INGEST_WORKERS", 25)
	viper.SetDefault("INGEST_MAX_MOVIES", 10000)
	viper.SetDefault("INGEST_RETRY_ATTEMPTS", 3)
	viper.SetDefault("INGEST_HTTP_TIMEOUT_SEC", 30)
	viper.SetDefault("INGEST_LOCK_TTL_SEC", 7200)
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.TMDBAPIKey == "" {
		return log.Errorf("Fatal error: invalid TMDB configuration", "TMDB_API_KEY is required")
	}

	if config.IngestWorkers <= 0 {
		return log.Error(
			"Fatal error: ingest worker count must be positive",
			"workers", config.IngestWorkers,
		)
	}

	// A zero timeout would build an unbounded http.Client and a zero retry
	// count would never issue the detail request at all.
	if config.IngestHTTPTimeoutSec <= 0 {
		return log.Error(
			"Fatal error: ingest HTTP timeout must be positive",
			"timeoutSec", config.IngestHTTPTimeoutSec,
		)
	}

	if config.IngestRetryAttempts <= 0 {
		return log.Error(
			"Fatal error: ingest retry attempts must be positive",
			"attempts", config.IngestRetryAttempts,
		)
	}

	if config.IngestHour < 0 || config.IngestHour > 23 ||
		config.IngestMinute < 0 || config.IngestMinute > 59 {
		return log.Error(
			"Fatal error: invalid ingest schedule time",
			"hour", config.IngestHour,
			"minute", config.IngestMinute,
		)
	}

	return nil
}
