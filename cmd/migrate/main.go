package main

import (
	"context"
	"log"
	"os"

	"qics/internal/config"
	"qics/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	databaseURL := ""
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	} else {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		databaseURL = cfg.Database.URL
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [database_url] (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(context.Background(), db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Migrations complete (schema version %s)", runner.Version())
}
