package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	DatasetSource string // file|url|mysql
	DatasetPath   string
	DatasetURL    string
	MySQLDSN      string
	RedisAddr     string // empty disables the query cache
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	RateLimitRPS  int
	ImportWorkers int
	ImportBatch   int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		DatasetSource: env("DATASET_SOURCE", "file"),
		DatasetPath:   env("DATASET_PATH", "skincare_merged.csv"),
		DatasetURL:    os.Getenv("DATASET_URL"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/skincare?charset=utf8mb4&loc=UTC"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RateLimitRPS:  atoi("RATE_LIMIT_RPS", 50),
		ImportWorkers: atoi("IMPORT_WORKERS", 4),
		ImportBatch:   atoi("IMPORT_BATCH_SIZE", 500),
	}
	if c.DatasetSource == "url" && c.DatasetURL == "" {
		log.Warn().Msg("DATASET_SOURCE=url but DATASET_URL is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
