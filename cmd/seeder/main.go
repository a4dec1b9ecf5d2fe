package main

import (
	"context"
	"database/sql"
	"flag"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tripvote/internal/adapters/media"
	"tripvote/internal/adapters/observability"
	"tripvote/internal/app"
	"tripvote/internal/domain"
	"tripvote/internal/shared"
	mysqlrepo "tripvote/internal/storage/mysql"
)

func main() {
	reset := flag.Bool("reset", false, "delete all selections before seeding")
	file := flag.String("file", "", "seed file path (overrides SEED_FILE)")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()
	if *file != "" {
		cfg.SeedFile = *file
	}

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("file", cfg.SeedFile).
		Int("workers", cfg.SeedWorkers).
		Bool("reset", *reset).
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

	if *reset {
		n, err := repo.DeleteAllSelections(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("reset selections failed")
		}
		log.Info().Int64("deleted", n).Msg("selections cleared")
	}

	cat, err := app.LoadSnapshot(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("load seed file failed")
	}

	if err := repo.UpsertConfig(ctx, cat.Config); err != nil {
		log.Fatal().Err(err).Msg("upsert trip config failed")
	}

	// cities first to satisfy the hotels FK
	for _, c := range cat.Cities {
		if err := repo.UpsertCity(ctx, c); err != nil {
			log.Fatal().Err(err).Str("city", c.ID).Msg("upsert city failed")
		}
		log.Info().Str("city", c.ID).Int("hotels", len(c.Hotels)).Msg("city upserted")
	}

	resolver := media.New(cfg.ImageRPS)
	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for _, c := range cat.Cities {
		for _, h := range c.Hotels {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Fatal().Err(err).Msg("semaphore acquire failed")
			}

			wg.Add(1)
			go func(cityName string, h domain.Hotel) {
				defer wg.Done()
				defer sem.Release(1)

				img, err := resolver.Resolve(ctx, cityName, h.Name, h.Image)
				if err != nil {
					log.Warn().Str("hotel", h.ID).Err(err).Msg("image check failed, keeping given URL")
				}
				h.Image = img

				if err := repo.UpsertHotel(ctx, h); err != nil {
					log.Warn().Str("hotel", h.ID).Err(err).Msg("upsert failed")
					return
				}
				log.Info().Str("hotel", h.ID).Msg("hotel upserted")
			}(c.Name, h)
		}
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}
