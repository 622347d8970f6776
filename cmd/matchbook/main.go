package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dkimq/matchbook/params"
	"github.com/dkimq/matchbook/pkg/api"
	"github.com/dkimq/matchbook/pkg/engine"
	"github.com/dkimq/matchbook/pkg/feed"
	"github.com/dkimq/matchbook/pkg/journal"
	"github.com/dkimq/matchbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables.
	cfg := params.LoadFromEnv("")

	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Log.File != "" {
		logger, err = util.NewLoggerWithFile(cfg.Log.Level, cfg.Log.File)
	} else {
		logger, err = util.NewLogger(cfg.Log.Level)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// ---- Engine ----
	eng := engine.New(sugar)
	for _, symbol := range cfg.Pairs {
		pair, err := engine.ParsePair(symbol)
		if err != nil {
			sugar.Fatalw("bad_pair_config", "symbol", symbol, "err", err)
		}
		if err := eng.RegisterPair(pair); err != nil {
			sugar.Fatalw("pair_registration_failed", "symbol", symbol, "err", err)
		}
	}

	// ---- Trade journal ----
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		sugar.Fatalw("journal_open_failed", "path", cfg.Journal.Path, "err", err)
	}
	defer store.Close()
	eng.AddSink(store)
	sugar.Infow("journal_opened", "path", cfg.Journal.Path)

	// ---- Kafka feed (optional) ----
	if len(cfg.Feed.Brokers) > 0 {
		publisher := feed.NewTradePublisher(cfg.Feed.Brokers, cfg.Feed.Topic)
		defer publisher.Close()
		eng.AddSink(publisher)
		sugar.Infow("kafka_feed_enabled", "brokers", cfg.Feed.Brokers, "topic", cfg.Feed.Topic)
	}

	// ---- API server ----
	apiServer := api.NewServer(eng, store, sugar)
	eng.AddSink(apiServer) // stream trades to WebSocket subscribers

	go func() {
		if err := apiServer.Start(cfg.API.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("matchbook_started",
		"pairs", cfg.Pairs,
		"api_addr", cfg.API.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	sugar.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("api_shutdown_failed", "err", err)
	}
}
