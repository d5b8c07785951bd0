package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/config"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/aggregator"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/api"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/cache"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/sources"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/version"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/weather"
)

var (
	configFile = flag.String("config", "", "Path to configuration file (optional, defaults apply)")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("weather-bitcoin-api version %s\n", version.Version)
		os.Exit(0)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("Starting weather-bitcoin-api", "version", version.Version)

	metrics.Init()
	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	registry, err := sources.NewRegistry(cfg.EnabledSources())
	if err != nil {
		logger.Fatal("Failed to build source registry", "error", err)
	}
	logger.Info("Registered price sources", "sources", registry.List())

	fetcher := sources.NewFetcher(cfg.Server.RetryBackoff.ToDuration(), logger)
	query := aggregator.NewQuery(registry, fetcher, logger)
	agg := aggregator.New(query, cfg.Server.GlobalDeadline.ToDuration(), logger)
	weatherClient := weather.NewClient(cfg.Weather, logger)

	server := api.NewServer(cfg.Server.HTTP.Addr, query, agg, weatherClient, logger)

	var reportCache *cache.ReportCache
	if cfg.Cache.Enabled {
		reportCache = cache.New(cfg.Cache, logger)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := reportCache.Ping(pingCtx); err != nil {
			logger.Warn("Redis unreachable, continuing without report cache", "addr", cfg.Cache.Addr, "error", err)
			_ = reportCache.Close()
			reportCache = nil
		} else {
			logger.Info("Report cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL.ToDuration().String())
			server.SetCache(reportCache)
		}
		cancel()
	}

	var hub *api.Hub
	if cfg.Server.WebSocket.Enabled {
		hub = api.NewHub(logger)
		server.SetHub(hub)
		logger.Info("WebSocket streaming enabled", "path", "/ws")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Shutting down gracefully...")
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if hub != nil {
		hub.Stop()
	}
	if reportCache != nil {
		_ = reportCache.Close()
	}
	logger.Info("Shutdown complete")
}
