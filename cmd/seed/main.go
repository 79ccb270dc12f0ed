package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/wevy/internal/config"
	"github.com/dukerupert/wevy/internal/database"
	"github.com/dukerupert/wevy/internal/logging"
	"github.com/dukerupert/wevy/internal/seed"
	"github.com/dukerupert/wevy/internal/store"
)

func main() {
	file := flag.String("file", "fixture.yaml", "path to the YAML seed fixture")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	fixture, err := seed.Load(*file)
	if err != nil {
		logger.Error("failed to load fixture", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	res, err := seed.Apply(fixture, store.NewHouseholdStore(db), store.NewRecipeStore(db), logger.With("component", "seed"))
	if err != nil {
		logger.Error("seed failed", "error", err)
		db.Close()
		os.Exit(1)
	}

	for _, h := range res.Households {
		fmt.Printf("%d\t%s\tinvite code %s\n", h.ID, h.Name, h.InviteCode)
	}
	fmt.Printf("seeded %d households, %d members, %d recipes into %s\n", len(res.Households), res.Members, res.Recipes, cfg.DBPath)
}
