package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"skincare_reviews/internal/adapters/csvfile"
	"skincare_reviews/internal/adapters/observability"
	"skincare_reviews/internal/app"
	"skincare_reviews/internal/shared"
	mysqlrepo "skincare_reviews/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("path", cfg.DatasetPath).
		Int("workers", cfg.ImportWorkers).
		Int("batch", cfg.ImportBatch).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	imp := app.NewImportService(csvfile.New(cfg.DatasetPath), mysqlrepo.New(db))
	stats, err := imp.Import(ctx, cfg.ImportBatch, cfg.ImportWorkers)
	if err != nil {
		log.Fatal().Err(err).
			Int("rows", stats.Rows).
			Int("failed_batches", stats.FailedBatches).
			Msg("import failed")
	}
	log.Info().Int("rows", stats.Rows).Int("batches", stats.Batches).Msg("import completed")
}
