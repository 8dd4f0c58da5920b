package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deusflow/trovebot/internal/app"
	"github.com/deusflow/trovebot/internal/config"
	"github.com/deusflow/trovebot/internal/logger"
	"github.com/deusflow/trovebot/internal/monitor"
	"github.com/deusflow/trovebot/internal/narrow"
	"github.com/deusflow/trovebot/internal/randutil"
	"github.com/deusflow/trovebot/internal/schedule"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:           "trovebot",
		Short:         "Post random historical newspaper articles from Trove",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.Debug, cfg.LogFormat)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./trovebot.{yaml,json,toml} if present)")

	var keyword string
	random := &cobra.Command{
		Use:   "random",
		Short: "Print one random article as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.InvocationTimeout)
			defer cancel()

			engine, err := newEngine(cfg, randutil.NewRandom(), logger.Logger)
			if err != nil {
				return err
			}
			article, err := engine.FindRandomArticle(ctx, keyword, cfg.RequiredFilters())
			if errors.Is(err, narrow.ErrNoCandidate) {
				return fmt.Errorf("no article found for %q: %w", keyword, err)
			}
			if err != nil {
				return err
			}
			return app.NewWriterPublisher(cmd.OutOrStdout()).Publish(ctx, article)
		},
	}
	random.Flags().StringVar(&keyword, "keyword", "", "search keyword (default: a random stopword)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run one bot invocation and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.InvocationTimeout)
			defer cancel()

			bot, err := buildBot(cfg)
			if err != nil {
				return err
			}
			outcome, err := bot.RunOnce(ctx)
			logger.Info("invocation finished", "outcome", outcome)
			return err
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the bot on its cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduled(cmd.Context(), cfg)
		},
	}

	root.AddCommand(random, run, scheduleCmd)
	return root
}

func buildBot(cfg *config.Config) (*app.Bot, error) {
	rng := randutil.NewRandom()
	engine, err := newEngine(cfg, rng, logger.Logger)
	if err != nil {
		return nil, err
	}
	return newBot(cfg, engine, rng, logger.Logger)
}

func runScheduled(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := buildBot(cfg)
	if err != nil {
		return err
	}
	locker, closeLocker, err := newLocker(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	var mon *monitor.Server
	if cfg.EnableHTTPMonitoring {
		mon = monitor.New(nil, nil, logger.Logger)
		go func() {
			if err := mon.Start(":" + strconv.Itoa(cfg.MonitoringPort)); err != nil {
				logger.Error("monitoring server error", "error", err)
			}
		}()
	}

	sched := schedule.New(schedule.Options{
		Spec: cfg.Schedule,
		Job: func(ctx context.Context) error {
			_, err := bot.RunOnce(ctx)
			return err
		},
		Locker:  locker,
		LockTTL: cfg.LockTTL,
		Timeout: cfg.InvocationTimeout,
		Logger:  logger.Logger,
	})
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()

	if mon != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mon.Shutdown(shutdownCtx); err != nil {
			logger.Warn("monitoring server shutdown", "error", err)
		}
	}
	return nil
}
