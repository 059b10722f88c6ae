package main

import (
	"flag"
	"os"

	"github.com/Domenick1991/flightreserve/config"
	"github.com/Domenick1991/flightreserve/internal/database"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		down    int
	)
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config")
	flag.IntVar(&down, "down", 0, "number of migrations to roll back instead of migrating up")
	flag.Parse()

	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	url := cfg.Database.URL("pgx5")
	if down > 0 {
		if err := database.Rollback(url, down); err != nil {
			logger.Fatal("rollback failed", "steps", down, "error", err)
		}
		log.Info("rolled back migrations", "steps", down)
		return
	}

	if err := database.Migrate(url); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
