package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-explorer/pkg/config"
	"github.com/dd0wney/cluso-explorer/pkg/explorer"
	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/persistence"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
)

const (
	systemMetricsInterval = 15 * time.Second
	shutdownTimeout       = 5 * time.Second
)

func runCmd() *cobra.Command {
	var snapshotPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the interactive explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if snapshotPath != "" {
				cfg.Snapshot.Path = snapshotPath
				cfg.Snapshot.S3 = nil
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file, overrides the configuration")
	return cmd
}

// backend bundles the snapshot store with the file watcher, when one applies.
type backend struct {
	persistence.Backend
	watcher *persistence.Watcher
}

func openBackend(ctx context.Context, cfg *config.Config, logger logging.Logger, reg *metrics.Registry) (*backend, error) {
	if cfg.Snapshot.S3 != nil {
		store, err := persistence.NewS3Store(ctx, *cfg.Snapshot.S3, logger, reg)
		if err != nil {
			return nil, err
		}
		return &backend{Backend: store}, nil
	}

	path := cfg.Snapshot.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	store := persistence.NewFileStore(path, logger, reg)
	b := &backend{Backend: store}
	if cfg.Snapshot.WatchEnabled() {
		b.watcher = persistence.NewWatcher(path, persistence.DefaultDebounce, logger, reg)
		store.AfterSave(b.watcher.Ignore)
	}
	return b, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	logger, closer, err := logging.NewFileLogger(cfg.Log.File, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closer.Close()
	logging.SetDefaultLogger(logger)

	reg := metrics.DefaultRegistry()
	bus := pubsub.New(pubsub.DefaultBuffer)
	defer bus.Shutdown()

	store, err := openBackend(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}

	session := explorer.New(explorer.Options{
		Layout:        cfg.Layout,
		FadeRate:      cfg.View.FadeRate,
		ViewLayers:    cfg.View.Layers,
		AutosaveDelay: cfg.Snapshot.AutosaveDelay,
		Bus:           bus,
		Logger:        logger,
		Metrics:       reg,
	})
	defer session.Close()
	session.SetLocale(os.Getenv("LANG"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notices, err := bus.Subscribe(ctx, pubsub.TopicNotice)
	if err != nil {
		return err
	}
	defer notices.Unsubscribe()

	saver := persistence.NewSaver(store, session.Snapshot, bus, logger)

	session.Start()
	doc, err := store.Load(ctx)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		logger.Info("no snapshot found, starting from a single root", logging.String("backend", store.Name()))
	case err != nil:
		return fmt.Errorf("failed to load snapshot: %w", err)
	default:
		session.Load(doc, store.Name())
		_, rev := session.Snapshot()
		saver.Mark(rev)
	}

	m := newModel(session, notices.Channel(), cfg.View.FrameInterval())
	m.afterLoad = func() {
		_, rev := session.Snapshot()
		saver.Mark(rev)
	}
	program := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		program.Quit()
		return nil
	})

	g.Go(func() error {
		return saver.Run(gctx)
	})

	if store.watcher != nil {
		g.Go(func() error {
			return store.watcher.Run(gctx, func() {
				doc, err := store.Load(gctx)
				if err != nil {
					logger.Warn("external snapshot change could not be loaded", logging.Error(err))
					bus.Publish(pubsub.TopicNotice, pubsub.Notice{
						Severity: pubsub.SeverityError,
						Message:  fmt.Sprintf("External change ignored: %v", err),
					})
					return
				}
				program.Send(reloadMsg{doc: doc, source: "external"})
			})
		})
	}

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", logging.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(systemMetricsInterval)
		defer ticker.Stop()
		for {
			reg.UpdateSystemMetrics(start)
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	runErr := g.Wait()

	// Anything edited inside the last autosave window is written on the way out.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer flushCancel()
	if err := saver.Flush(flushCtx); err != nil {
		logger.Error("final save failed", logging.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	logger.Info("explorer stopped", logging.Duration("uptime", time.Since(start)))
	return runErr
}
