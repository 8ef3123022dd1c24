package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/api"
	"github.com/brandlens/insight-api/internal/config"
	"github.com/brandlens/insight-api/internal/fetcher/crawlbase"
	"github.com/brandlens/insight-api/internal/fetcher/headless"
	"github.com/brandlens/insight-api/internal/fetcher/page"
	"github.com/brandlens/insight-api/internal/logging"
	"github.com/brandlens/insight-api/internal/metrics"
	"github.com/brandlens/insight-api/internal/retry"
	"github.com/brandlens/insight-api/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		InitialWait: cfg.Retry.InitialWait(),
		Multiplier:  cfg.Retry.Multiplier,
		MaxWait:     cfg.Retry.MaxWait(),
	}

	pageFetcher := page.New(page.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, policy, logger)

	crawlbaseClient := crawlbase.New(crawlbase.Config{
		Token:    cfg.Crawlbase.Token,
		MaxPosts: cfg.Crawlbase.MaxPosts,
	}, policy, logger)

	channelScraper := headless.NewScraper(headless.Config{
		NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSeconds) * time.Second,
		ElementWait:       time.Duration(cfg.Headless.ElementWaitSeconds) * time.Second,
		MaxVideoLinks:     cfg.Headless.MaxVideoLinks,
		UserAgent:         cfg.Headless.UserAgent,
	}, policy, logger)
	defer channelScraper.Close()

	analyzers := api.Analyzers{
		Website:   service.NewWebsiteAnalyzer(pageFetcher, cfg.RequestTimeout(), logger),
		Instagram: service.NewInstagramAnalyzer(crawlbaseClient, cfg.RequestTimeout(), logger),
		YouTube:   service.NewYouTubeAnalyzer(channelScraper, cfg.RequestTimeout(), logger),
	}

	server := api.NewServer(analyzers, cfg, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
