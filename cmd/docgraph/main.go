// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command docgraph builds and serves documentation reflection graphs
// for TypeScript source trees.
//
// Usage:
//
//	# One-shot: build a graph and write it to a file
//	docgraph generate --root ./src --name myproject --out docs.json
//
//	# Serve the HTTP API, rebuilding on file changes
//	docgraph serve --root ./src --name myproject --watch
//
//	# Inspect persisted snapshots
//	docgraph snapshots list
//	docgraph snapshots diff --base <id> --target <id>
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8095/v1/docs/health
//
//	# Build a graph
//	curl -X POST http://localhost:8095/v1/docs/build \
//	  -H "Content-Type: application/json" \
//	  -d '{"name": "myproject", "root": "/path/to/src"}'
//
//	# Search declarations
//	curl 'http://localhost:8095/v1/docs/search?q=Animal' | jq
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tidewaterhq/docgraph/services/docgraph"
	"github.com/tidewaterhq/docgraph/services/docgraph/config"
	"github.com/tidewaterhq/docgraph/services/docgraph/serialize"
	"github.com/tidewaterhq/docgraph/services/docgraph/store"
)

var (
	flagConfig string
	flagDebug  bool

	flagRoot  string
	flagName  string
	flagOut   string
	flagWatch bool

	flagBase    string
	flagTarget  string
	flagProject string
)

func main() {
	root := &cobra.Command{
		Use:   "docgraph",
		Short: "Documentation reflection graphs for TypeScript projects",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(flagDebug)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file (embedded defaults when empty)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging and verbose HTTP logs")

	root.AddCommand(newServeCommand())
	root.AddCommand(newGenerateCommand())
	root.AddCommand(newSnapshotsCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the process-wide slog handler. Interactive
// terminals get text output, everything else gets JSON for ingestion.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// setupTelemetry installs the global tracer and meter providers. The
// meter provider exports through the default Prometheus registry, so
// promhttp serves both promauto and OTel instruments.
func setupTelemetry() error {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(sdktrace.NewTracerProvider())

	exporter, err := otelprom.New()
	if err != nil {
		return fmt.Errorf("prometheus exporter: %w", err)
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))
	return nil
}

// openSnapshotStore opens the Badger-backed snapshot store, or returns
// nil when persistence is disabled.
func openSnapshotStore(cfg *config.Config) (*store.SnapshotStore, *badger.DB, error) {
	if !cfg.Storage.Enabled {
		return nil, nil, nil
	}
	opts := badger.DefaultOptions(cfg.Storage.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot storage at %s: %w", cfg.Storage.Path, err)
	}
	snaps, err := store.NewSnapshotStore(db, slog.Default())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return snaps, db, nil
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the documentation HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&flagRoot, "root", "", "Source directory to build at startup")
	cmd.Flags().StringVar(&flagName, "name", "project", "Project display name for the startup build")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "Rebuild when files under --root change")
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if err := setupTelemetry(); err != nil {
		return err
	}

	snaps, db, err := openSnapshotStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	svc := docgraph.NewService(cfg, snaps, slog.Default())

	if flagRoot != "" {
		if _, err := svc.Build(ctx, flagName, flagRoot); err != nil {
			slog.Error("startup build failed",
				slog.String("root", flagRoot),
				slog.String("error", err.Error()))
		}
	}

	if flagDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("docgraph"))
	if flagDebug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	docgraph.RegisterRoutes(v1, docgraph.NewHandlers(svc))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if flagWatch && cfg.Watch.Enabled && flagRoot != "" {
		watcher := docgraph.NewWatcher(svc,
			time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond,
			slog.Default())
		go func() {
			if err := watcher.Run(watchCtx, flagName, flagRoot); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("shutting down")
		stopWatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("starting docgraph server", slog.String("address", cfg.Addr()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a documentation graph and write it to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&flagRoot, "root", "", "Source directory to document (required)")
	cmd.Flags().StringVar(&flagName, "name", "project", "Project display name")
	cmd.Flags().StringVar(&flagOut, "out", "docgraph.json", "Output file path")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

func runGenerate(ctx context.Context) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg.Storage.Enabled = false

	svc := docgraph.NewService(cfg, nil, slog.Default())
	out, err := svc.Build(ctx, flagName, flagRoot)
	if err != nil {
		return err
	}

	data, err := serialize.Encode(out.Project, out.Diagnostics)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flagOut, data, 0o644); err != nil {
		return err
	}

	slog.Info("graph written",
		slog.String("out", flagOut),
		slog.Int("reflections", out.Project.Registry.Len()),
		slog.Int("diagnostics", len(out.Diagnostics)))

	for _, d := range out.Diagnostics {
		slog.Warn("diagnostic",
			slog.String("kind", string(d.Kind)),
			slog.String("message", d.Message),
			slog.String("file", d.File))
	}
	return nil
}

func newSnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect persisted documentation snapshots",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshotStore(func(snaps *store.SnapshotStore) error {
				metas, err := snaps.List(cmd.Context(), flagProject, 0)
				if err != nil {
					return err
				}
				return printJSON(metas)
			})
		},
	}
	list.Flags().StringVar(&flagProject, "project-hash", "", "Filter by project hash")

	diff := &cobra.Command{
		Use:   "diff",
		Short: "Compare two snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshotStore(func(snaps *store.SnapshotStore) error {
				d, err := snaps.Diff(cmd.Context(), flagBase, flagTarget)
				if err != nil {
					return err
				}
				return printJSON(d)
			})
		},
	}
	diff.Flags().StringVar(&flagBase, "base", "", "Base snapshot id (required)")
	diff.Flags().StringVar(&flagTarget, "target", "", "Target snapshot id (required)")
	_ = diff.MarkFlagRequired("base")
	_ = diff.MarkFlagRequired("target")

	cmd.AddCommand(list, diff)
	return cmd
}

// withSnapshotStore opens storage per the config, runs fn, and closes.
func withSnapshotStore(fn func(*store.SnapshotStore) error) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if !cfg.Storage.Enabled {
		return errors.New("snapshot storage is disabled in the configuration")
	}
	snaps, db, err := openSnapshotStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(snaps)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
