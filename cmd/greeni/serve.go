package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrWong99/greeni/internal/app"
	"github.com/MrWong99/greeni/internal/config"
	"github.com/MrWong99/greeni/internal/observe"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringP("config", "c", defaultConfigPath, "path to the YAML configuration file")
	cmd.Flags().Bool("watch", true, "reload the log level when the config file changes")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("getting config flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	lvl, err := observe.ParseLevel(string(cfg.Server.LogLevel))
	if err != nil {
		return err
	}
	level.Set(lvl)
	logger, err := observe.NewLeveledLogger(os.Stderr, &level, string(cfg.Server.LogFormat))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	slog.Info("greeni starting", "version", version, "config", path, "listen_addr", cfg.Server.ListenAddr)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	app.RegisterBuiltins(reg)
	providers, err := app.BuildProviders(ctx, cfg, reg)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}

	opts := []app.Option{app.WithVersion(version)}
	if watch {
		opts = append(opts, app.WithConfigWatch(path, &level))
	}
	application, err := app.New(ctx, cfg, providers, opts...)
	if err != nil {
		return err
	}
	printSummary(cmd.ErrOrStderr(), cfg)

	runErr := application.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
	} else {
		runErr = nil
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	slog.Info("goodbye")
	return runErr
}
