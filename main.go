package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/1bobby-git/ytmusic-bridge/internal/adapters/castdevice"
	"github.com/1bobby-git/ytmusic-bridge/internal/adapters/extract"
	"github.com/1bobby-git/ytmusic-bridge/internal/buildinfo"
	"github.com/1bobby-git/ytmusic-bridge/internal/config"
	"github.com/1bobby-git/ytmusic-bridge/internal/control"
	"github.com/1bobby-git/ytmusic-bridge/internal/diagnostics"
	"github.com/1bobby-git/ytmusic-bridge/internal/directory"
	"github.com/1bobby-git/ytmusic-bridge/internal/dispatch"
	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
	"github.com/1bobby-git/ytmusic-bridge/internal/lifecycle"
	"github.com/1bobby-git/ytmusic-bridge/internal/linkparse"
	"github.com/1bobby-git/ytmusic-bridge/internal/queue"
	"github.com/1bobby-git/ytmusic-bridge/internal/relay"
	"github.com/1bobby-git/ytmusic-bridge/internal/resolver"
	"github.com/1bobby-git/ytmusic-bridge/internal/service"
	"github.com/1bobby-git/ytmusic-bridge/internal/settings"
	"github.com/1bobby-git/ytmusic-bridge/internal/source"
	"github.com/1bobby-git/ytmusic-bridge/internal/tasks"
	"github.com/1bobby-git/ytmusic-bridge/internal/watch"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	app := &cli.Command{
		Name:    "ytmusic-bridge",
		Usage:   "Play YouTube Music links on Google Cast devices",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd.String("config"), logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default config.toml",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return config.CreateConfigFile(cmd.String("config"))
				},
			},
			{
				Name:  "parse",
				Usage: "Classify a YouTube/YouTube Music URL without playing it",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("usage: parse <url>")
					}
					return printJSON(linkparse.Parse(cmd.Args().First()))
				},
			},
			{
				Name:  "doctor",
				Usage: "Check external binary dependencies",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return printJSON(diagnostics.DetectDependencies())
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func serve(ctx context.Context, configPath string, logger *log.Logger) error {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	mode, err := domain.ParsePlaybackMode(cfg.Playback.Mode)
	if err != nil {
		return err
	}

	runCtx, stopSignals := signal.NotifyContext(ctx, lifecycle.TerminationSignals()...)
	defer stopSignals()

	deps := diagnostics.DetectDependencies()
	if !deps.AllRequiredPresent {
		logger.Warn("yt-dlp binary not found; stream extraction will fail", "report", deps)
	}

	dir := directory.New(castdevice.NewScanner(0), castdevice.NewConnector(), directory.Options{
		EntryTTL:     cfg.Cache.DeviceTTL(),
		ScanInterval: cfg.Cache.DeviceScanInterval(),
		Logger:       logger.With("component", "directory"),
	})
	controller := control.New(dir, logger.With("component", "control"))
	trackResolver := resolver.New(extract.NewStreamExtractor(), resolver.Options{
		TTL:    cfg.Cache.MetadataTTL(),
		Logger: logger.With("component", "resolver"),
	})
	trackSource := source.New(source.Options{
		ProxyURL: cfg.Source.ProxyURL,
		Lister:   extract.NewFlatPlaylistLister(),
		Logger:   logger.With("component", "source"),
	})
	dispatcher := dispatch.New(controller, trackResolver, cfg.BaseURL(), dispatch.Options{
		Logger: logger.With("component", "dispatch"),
	})
	hub := watch.NewHub(controller, 0, logger.With("component", "watch"))
	pool := tasks.NewPool(0, 0, logger.With("component", "tasks"))
	store := settings.NewStore(mode, cfg.Playback.AutoPlay)
	engine := queue.NewEngine(dispatcher, hub, trackResolver, pool, store, queue.Options{
		Logger: logger.With("component", "queue"),
	})
	playService := service.New(engine, dispatcher, trackSource, store, service.Options{
		DefaultTargets: cfg.Playback.DefaultTargets,
		PreferMusicApp: cfg.Playback.PreferMusicApp,
		Logger:         logger.With("component", "service"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := relay.NewServer(addr, relay.Deps{
		Resolver: trackResolver,
		Source:   trackSource,
		Player:   playService,
		Queue:    engine,
		Devices:  dir,
		Stopper:  controller,
		Settings: store,
		BaseURL:  cfg.BaseURL(),
		Version:  buildinfo.Version,
		Logger:   logger.With("component", "relay"),
	})

	logger.Info("bridge starting",
		"version", buildinfo.Version,
		"addr", addr,
		"base_url", cfg.BaseURL(),
	)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case runErr = <-runErrCh:
	case <-runCtx.Done():
		runErr = runCtx.Err()
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, http.ErrServerClosed) {
		logger.Warn("bridge stopping", "reason", runErr)
	} else {
		logger.Info("bridge stopping", "reason", "signal")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "err", err)
	}

	engine.ClearAll()
	hub.Close()
	pool.Close()
	dir.Clear()

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, http.ErrServerClosed) {
		return runErr
	}
	return nil
}

func printJSON(payload any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
