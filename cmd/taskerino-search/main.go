// Command taskerino-search loads a Markdown vault and serves the
// search pipeline over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesmcarthur-3999/taskerino/internal/agent"
	"github.com/jamesmcarthur-3999/taskerino/internal/config"
	"github.com/jamesmcarthur-3999/taskerino/internal/engine"
	"github.com/jamesmcarthur-3999/taskerino/internal/importer"
	"github.com/jamesmcarthur-3999/taskerino/internal/index"
	"github.com/jamesmcarthur-3999/taskerino/internal/index/postgres"
	"github.com/jamesmcarthur-3999/taskerino/internal/index/sqlite"
	"github.com/jamesmcarthur-3999/taskerino/internal/server"
	"github.com/jamesmcarthur-3999/taskerino/web/handlers"
)

func main() {
	vaultPath := flag.String("vault", "", "Path to the Markdown vault directory (required)")
	flag.Parse()

	if *vaultPath == "" {
		fmt.Fprintln(os.Stderr, "usage: taskerino-search -vault <dir>")
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	data, err := importer.LoadVault(*vaultPath)
	if err != nil {
		log.Fatalf("Failed to load vault: %v", err)
	}
	log.Printf("Loaded %d files (%d notes, %d tasks, %d relationships), skipped %d",
		data.FilesLoaded, len(data.Collections.Notes), len(data.Collections.Tasks),
		len(data.Relationships), data.FilesSkipped)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idx, cleanup, err := buildIndex(ctx, cfg, data)
	if err != nil {
		log.Fatalf("Failed to build relationship index: %v", err)
	}
	defer cleanup()

	search := engine.NewGraphSearch()
	if err := search.Init(ctx, idx); err != nil {
		log.Fatalf("Failed to initialize graph search: %v", err)
	}

	svc := agent.NewService(cfg, search, nil)
	if cfg.LLM.APIKey == "" {
		log.Println("No API key configured; searches above the graph-only threshold will fail until one is set via PUT /api/config/key")
	}

	addr, _ := server.Start(ctx, cfg, svc, handlers.StaticCollections{Data: data.Collections})
	log.Printf("taskerino search API listening at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second)
}

// buildIndex constructs the configured relationship index backend and
// loads the vault's relationships into it.
func buildIndex(ctx context.Context, cfg *config.Config, data *importer.VaultData) (index.RelationshipIndex, func(), error) {
	switch cfg.Index.Backend {
	case "", "memory":
		idx, err := index.NewMemoryIndex(data.Relationships)
		return idx, func() {}, err

	case "sqlite":
		idx, err := sqlite.Open(cfg.Index.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := idx.Load(ctx, data.Relationships); err != nil {
			idx.Close()
			return nil, nil, err
		}
		return idx, func() { idx.Close() }, nil

	case "postgres":
		idx, err := postgres.Open(cfg.Index.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := idx.Load(ctx, data.Relationships); err != nil {
			idx.Close()
			return nil, nil, err
		}
		return idx, func() { idx.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
}
