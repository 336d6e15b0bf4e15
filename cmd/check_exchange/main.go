package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/config"
	"github.com/Angga2076/Bot-Railway01/internal/domain"
	"github.com/Angga2076/Bot-Railway01/internal/infrastructure/exchange"
	"github.com/Angga2076/Bot-Railway01/internal/infrastructure/logger"
)

// Smoke check: verifies public market data and the signed credentials
// without placing any order.
func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger("debug")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nonces, err := exchange.NewNonceSequencer(ctx, nil)
	if err != nil {
		log.Fatal("nonce sequencer", zap.Error(err))
	}
	client := exchange.NewIndodaxClient(cfg.Indodax.APIKey, cfg.Indodax.SecretKey,
		cfg.Exchange.RESTEndpoint, nonces, log)

	ticker, err := client.GetTicker(ctx, domain.NewPair("btc", "idr"))
	if err != nil {
		log.Fatal("public ticker failed", zap.Error(err))
	}
	log.Info("public API ok",
		zap.Float64("btc_last", ticker.Last),
		zap.Float64("btc_bid", ticker.Buy),
		zap.Float64("btc_ask", ticker.Sell))

	balances, err := client.GetBalance(ctx)
	if err != nil {
		log.Fatal("private API failed (check INDODAX_API_KEY / INDODAX_SECRET_KEY)", zap.Error(err))
	}
	log.Info("private API ok", zap.Int("assets_with_balance", len(balances)))
	for asset, b := range balances {
		log.Info("balance", zap.String("asset", asset),
			zap.Float64("available", b.Available), zap.Float64("hold", b.Hold))
	}
}
