package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"skincare_reviews/internal/adapters/csvfile"
	server "skincare_reviews/internal/adapters/http_server"
	"skincare_reviews/internal/adapters/observability"
	redisad "skincare_reviews/internal/adapters/redis"
	"skincare_reviews/internal/adapters/remote"
	"skincare_reviews/internal/app"
	"skincare_reviews/internal/domain"
	"skincare_reviews/internal/shared"
	mysqlrepo "skincare_reviews/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	src, closeSrc, err := rowSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset source")
	}
	ds, dropped, err := app.LoadFrom(ctx, src)
	closeSrc()
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}
	observability.SetDatasetRecords(ds.Len(), dropped)

	// cache is optional
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, serving without cache")
		} else {
			cache = rc
			defer rc.Close()
		}
	}
	q := app.NewQueryService(ds, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.RateLimitRPS)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// rowSource picks the dataset source; the returned func releases it once loaded.
func rowSource(cfg shared.Config) (domain.RowSource, func(), error) {
	switch cfg.DatasetSource {
	case "file":
		return csvfile.New(cfg.DatasetPath), func() {}, nil
	case "url":
		s, err := remote.New(cfg.DatasetURL, 5)
		return s, func() {}, err
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown DATASET_SOURCE %q (want file|url|mysql)", cfg.DatasetSource)
}
