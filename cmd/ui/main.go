package main

import (
	"context"
	"errors"
	"log"

	"qics/adapters/memory"
	"qics/adapters/postgres"
	"qics/adapters/rng"
	"qics/app"
	"qics/domain/core"
	"qics/internal/config"
	"qics/ports"
	"qics/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewResultRepository(db)
	} else {
		log.Println("DATABASE_URL not set, using in-memory repository")
		repo = memory.NewResultRepository()
		seedDemo(cfg, repo)
	}

	web, err := ui.NewApp(repo)
	if err != nil {
		log.Fatalf("ui: %v", err)
	}

	if err := web.Start(ui.Config{Port: cfg.Server.Port}); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedDemo populates an in-memory repository with a synthetic run so the
// dashboard has data to render. Requires QICS_SIMULATION_ENABLED=true.
func seedDemo(cfg *config.Config, repo ports.ResultRepository) {
	manifest, err := app.SeedDemoRun(context.Background(), cfg, repo, rng.NewDeterministic())
	if errors.Is(err, core.ErrSimulationDisabled) {
		log.Println("simulation mode disabled, starting with an empty repository")
		return
	}
	if err != nil {
		log.Fatalf("seed demo run: %v", err)
	}
	log.Printf("seeded demo run %s", manifest.RunID)
}
