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

	"github.com/dusk-indust/repomerge/internal/config"
	"github.com/dusk-indust/repomerge/internal/httpapi"
	"github.com/dusk-indust/repomerge/internal/job"
	"github.com/dusk-indust/repomerge/internal/llm"
	"github.com/dusk-indust/repomerge/internal/mcptools"
	"github.com/dusk-indust/repomerge/internal/merge"
	"github.com/dusk-indust/repomerge/internal/source"
)

// defaultSQLitePath is used when the sqlite backend is selected without a path.
const defaultSQLitePath = "repomerge.db"

func runServe(args []string) error {
	var (
		configDir string
		addr      string
		mcp       bool
	)

	fs := flag.NewFlagSet("repomerge serve", flag.ContinueOnError)
	fs.StringVar(&configDir, "config", ".", "directory containing repomerge.yml")
	fs.StringVar(&addr, "addr", "", "listen address (overrides the config file)")
	fs.BoolVar(&mcp, "mcp", false, "serve MCP tools at /mcp (in addition to the config file setting)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctrl := job.NewController(store, buildSources(cfg), reasonerFactory(cfg), cfg.Merge.Concurrency)

	var opts []httpapi.Option
	if mcp || cfg.Server.EnableMCP {
		svc := mcptools.NewMergeService(store, ctrl)
		opts = append(opts, httpapi.WithMCPHandler(mcptools.HTTPHandler(svc)))
		log.Printf("serve: MCP tools mounted at /mcp")
	}

	srv := httpapi.NewServer(store, ctrl, opts...)
	if err := srv.Start(addr); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Printf("serve: listening on %s (store: %s)", addr, cfg.Store.Backend)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("serve: shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// openStore selects the job store backend from config. The returned close
// function is a no-op for the memory backend.
func openStore(ctx context.Context, cfg *config.Config) (job.Store, func() error, error) {
	switch cfg.Store.Backend {
	case "memory":
		return job.NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = defaultSQLitePath
		}
		store, err := job.NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (want memory or sqlite)", cfg.Store.Backend)
	}
}

// buildSources wires one FileSource per supported repository kind.
func buildSources(cfg *config.Config) map[job.SourceKind]source.FileSource {
	gh := source.NewGitHub(cfg.GitHub.Token)
	gh.MaxFileBytes = cfg.Merge.MaxFileBytes

	gitdir := source.NewGitDir()
	gitdir.MaxFileBytes = cfg.Merge.MaxFileBytes

	return map[job.SourceKind]source.FileSource{
		job.SourceGitHub: gh,
		job.SourceGitDir: gitdir,
	}
}

// reasonerFactory builds per-job reasoners from the provider config.
func reasonerFactory(cfg *config.Config) job.ReasonerFactory {
	return func(provider string) (merge.Reasoner, error) {
		name, pc := cfg.Provider(provider)
		backend, err := llm.NewBackend(name, llm.Config{
			APIKey:  pc.APIKey,
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return merge.NewProviderReasoner(backend, pc.MaxTokens), nil
	}
}
