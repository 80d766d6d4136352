package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caseroomhq/caseroom/internal/api"
	"github.com/caseroomhq/caseroom/internal/casestore"
	"github.com/caseroomhq/caseroom/internal/config"
	"github.com/caseroomhq/caseroom/internal/events"
	"github.com/caseroomhq/caseroom/internal/logger"
	"github.com/caseroomhq/caseroom/internal/terminal"
	"github.com/caseroomhq/caseroom/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	configPath := flag.String("config", config.DefaultPath(), "path to the configuration file")
	listenAddr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	logLevel := logger.ParseLevel(cfg.LogLevel)
	if initErr := logger.Init(logLevel, cfg.LogPath); initErr != nil {
		return fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	defer func() {
		if err != nil {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()
	log := logger.Global()

	log.Info("caseroomd starting")
	log.Debug("Configuration loaded: workspace_root=%s, listen_addr=%s, idle_threshold=%s",
		cfg.WorkspaceRoot, cfg.ListenAddr, cfg.IdleThreshold)

	if err := os.MkdirAll(cfg.WorkspaceRoot, 0755); err != nil {
		return fmt.Errorf("failed to create workspace root: %w", err)
	}

	var materializer casestore.Materializer
	if cfg.TemplateDir != "" {
		materializer = casestore.NewDirMaterializer(cfg.TemplateDir)
	}
	store := casestore.NewFileStore(cfg.WorkspaceRoot, materializer, log)

	terminals := terminal.NewTmuxService(log)
	manager := workspace.NewManager(store, terminals, cfg.TerminalPrefix, log)

	hub := events.NewHub(log)
	go hub.Run()
	defer hub.Stop()
	manager.Subscribe(events.NewHubNotifier(hub))

	watcher, err := events.NewDraftWatcher(hub, log)
	if err != nil {
		return fmt.Errorf("failed to start draft watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Warn("Failed to close draft watcher: %v", closeErr)
		}
	}()
	manager.Subscribe(watcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaper := workspace.NewReaper(manager, cfg.IdleThresholdDuration(), cfg.ReapIntervalDuration(), log)
	go reaper.Run(ctx)

	server := api.NewServer(cfg.ListenAddr, manager, hub, log)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	<-ctx.Done()
	log.Info("caseroomd shutting down")

	if err := server.Stop(); err != nil {
		return fmt.Errorf("failed to stop API server: %w", err)
	}

	return nil
}
