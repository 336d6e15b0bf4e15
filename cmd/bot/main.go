package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/config"
	"github.com/Angga2076/Bot-Railway01/internal/domain"
	"github.com/Angga2076/Bot-Railway01/internal/infrastructure/exchange"
	"github.com/Angga2076/Bot-Railway01/internal/infrastructure/logger"
	"github.com/Angga2076/Bot-Railway01/internal/infrastructure/storage"
	"github.com/Angga2076/Bot-Railway01/internal/telegram"
	"github.com/Angga2076/Bot-Railway01/internal/usecase"
)

func main() {
	// 1. Load Config (secrets are startup-fatal when missing)
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Init Exchange client with a persisted nonce sequence
	nonces, err := exchange.NewNonceSequencer(ctx, store)
	if err != nil {
		log.Fatal("Failed to init nonce sequencer", zap.Error(err))
	}
	client := exchange.NewIndodaxClient(cfg.Indodax.APIKey, cfg.Indodax.SecretKey,
		cfg.Exchange.RESTEndpoint, nonces, log)

	// 5. Init Services
	orders := usecase.NewOrderService(client, store, log, cfg.Trading.MinBuyIDR)
	pnl := usecase.NewPnLService(client, log, cfg.PnL.FeesInCostBasis, cfg.PnL.HistoryLimit)
	market, err := usecase.NewMarketService(client, 0)
	if err != nil {
		log.Fatal("Failed to init market service", zap.Error(err))
	}

	// 6. Live price stream; display-only, so a failed connect is not fatal
	stream := exchange.NewStream(cfg.Exchange.WSEndpoint, cfg.Exchange.StreamToken, log)
	stream.OnTick(market.HandleTick)
	if err := stream.Connect(); err != nil {
		log.Warn("price stream unavailable, falling back to REST tickers", zap.Error(err))
	}
	defer stream.Close()

	// 7. Telegram frontend
	quickPair, err := domain.ParsePair(cfg.Trading.QuickPair)
	if err != nil {
		log.Fatal("Invalid quick_pair in config", zap.Error(err))
	}
	bot, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.OwnerID, quickPair,
		orders, pnl, market, log)
	if err != nil {
		log.Fatal("Failed to init telegram bot", zap.Error(err))
	}

	log.Info("assistant started",
		zap.String("quick_pair", quickPair.String()),
		zap.Int64("owner", cfg.Telegram.OwnerID))

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("bot stopped", zap.Error(err))
	}
	log.Info("shutdown complete")
}
