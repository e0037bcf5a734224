package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JalenTrades/mes-trading-assistant/internal/broker"
	"github.com/JalenTrades/mes-trading-assistant/internal/config"
	"github.com/JalenTrades/mes-trading-assistant/internal/database"
	"github.com/JalenTrades/mes-trading-assistant/internal/journal"
	"github.com/JalenTrades/mes-trading-assistant/internal/model"
	"github.com/JalenTrades/mes-trading-assistant/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/assistant.local.yaml", "path to config file")
	statsInterval := flag.Duration("stats-interval", 30*time.Second, "connection stats log interval")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting assistant",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"endpoint", cfg.Broker.Endpoint,
		"journal_enabled", cfg.Journal.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	client := broker.New(broker.Config{
		Endpoint:             cfg.Broker.Endpoint,
		APIKey:               cfg.Broker.APIKey,
		APISecret:            cfg.Broker.APISecret,
		AuthTimeout:          cfg.Broker.AuthTimeout,
		RequestTimeout:       cfg.Broker.RequestTimeout,
		SubscribeTimeout:     cfg.Broker.SubscribeTimeout,
		MaxReconnectAttempts: cfg.Broker.MaxReconnectAttempts,
		ReconnectBaseDelay:   cfg.Broker.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Broker.ReconnectMaxDelay,
		PingTimeout:          cfg.Broker.PingTimeout,
		WriteTimeout:         cfg.Broker.WriteTimeout,
		BufferSize:           cfg.Broker.BufferSize,
	}, logger)

	// Optional tick journal
	var writer *journal.TickWriter
	if cfg.Journal.Enabled {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		buffer := journal.NewBuffer[model.MarketDataTick](cfg.Journal.BufferSize)
		writer = journal.NewTickWriter(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, buffer, pool, logger)

		client.OnMarketData(func(tick model.MarketDataTick) {
			if !buffer.Send(tick) {
				logger.Warn("journal buffer closed, dropping tick", "symbol", tick.Symbol)
			}
		})

		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start tick journal", "error", err)
			os.Exit(1)
		}
		defer func() {
			buffer.Close()
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			writer.Stop(stopCtx)
		}()
	}

	client.OnOrderUpdate(func(update model.OrderUpdate) {
		logger.Info("order update",
			"order_id", update.OrderID,
			"symbol", update.Symbol,
			"status", update.Status,
			"filled", update.FilledQuantity,
		)
	})
	client.OnPositionUpdate(func(pos model.Position) {
		logger.Info("position update",
			"symbol", pos.Symbol,
			"size", pos.Size,
			"unrealized_pnl", pos.UnrealizedPnL,
		)
	})

	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return statsLoop(gctx, client, writer, *statsInterval, logger)
	})

	logger.Info("assistant running", "instance_id", cfg.Instance.ID)

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("runtime error", "error", err)
	}

	logger.Info("assistant stopped")
}

// statsLoop periodically logs connection and journal statistics.
func statsLoop(ctx context.Context, client *broker.Client, writer *journal.TickWriter, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := client.Stats()
			logger.Info("connection stats",
				"state", stats.State,
				"connected", stats.Connected,
				"reconnect_attempts", stats.ReconnectAttempts,
				"subscriptions", stats.ActiveSubscriptions,
				"pending_requests", stats.PendingRequests,
			)
			if writer != nil {
				m := writer.Stats()
				logger.Info("journal stats",
					"inserts", m.Inserts,
					"conflicts", m.Conflicts,
					"errors", m.Errors,
					"flushes", m.Flushes,
				)
			}
		}
	}
}
