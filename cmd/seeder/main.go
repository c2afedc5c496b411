package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stayhub/internal/adapters/observability"
	redisad "stayhub/internal/adapters/redis"
	"stayhub/internal/app"
	"stayhub/internal/shared"
	mysqlrepo "stayhub/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load() // optional .env for local runs
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "seeder")

	files, err := filepath.Glob(filepath.Join(cfg.SeedDir, "*.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("bad seed dir pattern")
	}
	if len(files) == 0 {
		log.Fatal().Str("dir", cfg.SeedDir).Msg("no seed files found")
	}

	log.Info().
		Str("dir", cfg.SeedDir).
		Int("files", len(files)).
		Int("workers", cfg.Workers).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	seeder := app.NewSeedService(repo, repo, repo, cache, log.Logger)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var total int64

	for _, f := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			n, err := seeder.SeedFile(ctx, path)
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("seed failed")
				return
			}
			atomic.AddInt64(&total, int64(n))
			log.Info().Str("file", path).Int("listings", n).Msg("seed ok")
		}(f)
	}

	wg.Wait()
	log.Info().Int64("listings", total).Msg("seeding completed")
}
