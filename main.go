package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/logging"
	"github.com/fragmede/ativo/internal/monitor"
	"github.com/fragmede/ativo/internal/ui"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config.toml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	closeLog, err := logging.Configure(logging.Config{Output: cfg.LogPath, Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}
	defer closeLog()
	log := logging.GetLogger("main")

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	client := api.NewClient(api.Options{
		BaseURL: cfg.SupabaseURL,
		AnonKey: cfg.AnonKey,
		Timeout: cfg.RequestTimeout,
		Logger:  logging.GetLogger("api"),
	})
	authClient := api.NewAuthClient(client, api.AuthOptions{
		Storage:         db,
		RefreshMargin:   cfg.RefreshMargin,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          logging.GetLogger("auth"),
	})
	client.SetTokenSource(authClient)
	defer authClient.Close()

	store := auth.NewStore(authClient, logging.GetLogger("session"))
	defer store.Close()

	mon := monitor.New(cfg, client, db, logging.GetLogger("monitor"))
	defer mon.Stop()

	// Refresh recently looked-up vehicles into the cache on startup.
	go prefetch(client, db, cfg.RecentLookups, logging.GetLogger("prefetch"))

	app := ui.NewApp(cfg, store, client, db, mon, logging.GetLogger("ui"))
	defer app.Close()
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetProgram(p)
	mon.Start(p)
	authClient.Start()

	log.Info("starting", "backend", cfg.SupabaseURL, "start_path", cfg.StartPath)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func prefetch(client *api.Client, db *cache.DB, limit int, log logging.Logger) {
	queries, err := db.RecentLookups(limit)
	if err != nil {
		log.Warn("reading recent lookups", "err", err)
		return
	}
	ctx := context.Background()
	for _, q := range queries {
		if api.IsDocument(q) {
			continue
		}
		v, err := client.GetVehicleByPlate(ctx, q)
		if err != nil {
			continue
		}
		if err := db.PutVehicle(v); err != nil {
			log.Warn("caching vehicle", "plate", v.Plate, "err", err)
		}
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ativo", "config.toml")
}
