package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"skipper/internal/actions"
	"skipper/internal/classify"
	"skipper/internal/classify/sources"
	"skipper/internal/config"
	"skipper/internal/logging"
	"skipper/internal/monitor"
	"skipper/internal/services/llm"
	"skipper/internal/spotify"
	"skipper/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Monitor playback and act on artificial performers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitorProcess(cmd.Context(), ctx)
		},
	}
}

func runMonitorProcess(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      cfg.Logging.OutputPaths,
		ErrorOutputPaths: cfg.Logging.ErrorOutputPaths,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lockPath := filepath.Join(filepath.Dir(cfg.Database.Path), "skipper.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another skipper instance is already running")
	}
	defer lock.Unlock()

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	player, err := spotify.NewClient(signalCtx, cfg, logger)
	if err != nil {
		if errors.Is(err, spotify.ErrNoToken) {
			return err
		}
		return fmt.Errorf("spotify client: %w", err)
	}

	classifier := buildClassifier(cfg, st, logger)
	engine := actions.New(player, st, cfg.Actions, logger)
	m := monitor.New(player, classifier, engine, st, cfg.Monitor, logger)

	if err := m.Run(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildClassifier(cfg *config.Config, st *store.Store, logger *slog.Logger) *classify.Classifier {
	var opts []classify.Option
	if cfg.LLM.Enabled {
		client := llm.NewClient(llm.Config{
			APIKey:           cfg.LLM.APIKey,
			BaseURL:          cfg.LLM.BaseURL,
			Model:            cfg.LLM.Model,
			TimeoutSeconds:   cfg.LLM.TimeoutSeconds,
			RequireCitations: cfg.LLM.RequireCitations,
		})
		opts = append(opts, classify.WithLLM(client))
	}
	return classify.New(
		st,
		sources.FromConfig(cfg, nil),
		cfg.Classification.MinSourceAgreement,
		cfg.Classification.BandPolicy,
		time.Duration(cfg.Classification.CacheDurationSeconds)*time.Second,
		logger,
		opts...,
	)
}
