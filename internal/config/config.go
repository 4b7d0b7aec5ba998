package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	FrontendURL      string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	RateLimit        string
	ProfileCacheTTL  time.Duration
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	Engine           EngineConfig
}

// EngineConfig tunes candidate loading and concurrent scoring
type EngineConfig struct {
	ScoringWorkers     int `yaml:"scoring_workers"`
	ParallelThreshold  int `yaml:"scoring_parallel_threshold"`
	CandidatePoolLimit int `yaml:"candidate_pool_limit"`
	DefaultMatchCount  int `yaml:"default_match_count"`
}

// fileConfig is the YAML overlay named by MATCH_CONFIG_FILE. Environment
// variables take precedence over values set here.
type fileConfig struct {
	Engine                 EngineConfig `yaml:"engine"`
	RateLimit              string       `yaml:"rate_limit"`
	ProfileCacheTTLSeconds int          `yaml:"profile_cache_ttl_seconds"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Engine: EngineConfig{
			ScoringWorkers:     8,
			ParallelThreshold:  32,
			CandidatePoolLimit: 500,
			DefaultMatchCount:  10,
		},
		RateLimit:              "20-S",
		ProfileCacheTTLSeconds: 300,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	overlay := defaultFileConfig()
	if path := os.Getenv("MATCH_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &overlay); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		RateLimit:        getEnv("RATE_LIMIT", overlay.RateLimit),
		ProfileCacheTTL:  time.Duration(getEnvInt("PROFILE_CACHE_TTL_SECONDS", overlay.ProfileCacheTTLSeconds)) * time.Second,
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Engine: EngineConfig{
			ScoringWorkers:     getEnvInt("SCORING_WORKERS", overlay.Engine.ScoringWorkers),
			ParallelThreshold:  getEnvInt("SCORING_PARALLEL_THRESHOLD", overlay.Engine.ParallelThreshold),
			CandidatePoolLimit: getEnvInt("CANDIDATE_POOL_LIMIT", overlay.Engine.CandidatePoolLimit),
			DefaultMatchCount:  getEnvInt("DEFAULT_MATCH_COUNT", overlay.Engine.DefaultMatchCount),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.Engine.ScoringWorkers < 1 {
		return nil, fmt.Errorf("SCORING_WORKERS must be at least 1, got %d", cfg.Engine.ScoringWorkers)
	}
	if cfg.Engine.CandidatePoolLimit < 1 {
		return nil, fmt.Errorf("CANDIDATE_POOL_LIMIT must be at least 1, got %d", cfg.Engine.CandidatePoolLimit)
	}
	if cfg.RabbitMQPrefetch < 1 {
		cfg.RabbitMQPrefetch = 1
	}

	return cfg, nil
}

// AllowedOrigins splits FrontendURL into CORS origins
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func loadFile(path string, into *fileConfig) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied config path
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
