package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
	"github.com/Angga2076/Bot-Railway01/internal/usecase"
)

// boardPairs is the price board lineup, highest volume first.
var boardPairs = []string{
	"usdt_idr", "eth_idr", "btc_idr", "sol_idr", "xrp_idr",
	"doge_idr", "link_idr", "ada_idr", "bnb_idr", "usdc_idr",
}

// pendingAction tracks which flow the coin picker was opened for.
type pendingAction string

const (
	pendingNone    pendingAction = ""
	pendingBuyAll  pendingAction = "buy_all"
	pendingSellAll pendingAction = "sell_all"
)

// Bot is the chat frontend: it parses the owner's intents, calls the
// services and renders their results. Only the configured owner is served.
type Bot struct {
	api       *tgbotapi.BotAPI
	ownerID   int64
	quickPair domain.Pair

	orders *usecase.OrderService
	pnl    *usecase.PnLService
	market *usecase.MarketService
	logger *zap.Logger

	mu      sync.Mutex
	pending pendingAction
}

func NewBot(token string, ownerID int64, quickPair domain.Pair,
	orders *usecase.OrderService, pnl *usecase.PnLService, market *usecase.MarketService,
	logger *zap.Logger) (*Bot, error) {

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	return &Bot{
		api:       api,
		ownerID:   ownerID,
		quickPair: quickPair,
		orders:    orders,
		pnl:       pnl,
		market:    market,
		logger:    logger,
	}, nil
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// The chat stays clean: the user's input disappears once handled.
	b.deleteMessage(msg.Chat.ID, msg.MessageID)

	if msg.From == nil || msg.From.ID != b.ownerID {
		b.sendTransient(msg.Chat.ID, "❌ Kamu tidak punya akses ke bot ini", 2*time.Second)
		return
	}

	text := strings.TrimSpace(msg.Text)

	if text == "/start" {
		welcome := fmt.Sprintf("🤖 *Bot Trading Indodax*\n\n"+
			"Selamat datang, %s!\n"+
			"Pilih menu di bawah untuk mulai trading:", msg.From.FirstName)
		b.send(msg.Chat.ID, welcome, mainKeyboard())
		return
	}

	response, keyboard, ttl := b.route(ctx, text)
	if response == "" {
		return
	}

	sent := b.send(msg.Chat.ID, response, keyboard)
	if ttl > 0 && sent != nil {
		chatID, messageID := sent.Chat.ID, sent.MessageID
		time.AfterFunc(ttl, func() { b.deleteMessage(chatID, messageID) })
	}
}

// route maps one message to a response, the keyboard to show with it, and an
// optional auto-delete TTL for transient views.
func (b *Bot) route(ctx context.Context, text string) (string, interface{}, time.Duration) {
	quickAsset := b.quickPair.Base

	switch {
	case text == btnPrices:
		return b.priceBoard(ctx), mainKeyboard(), 30 * time.Second

	case text == btnBalance:
		return b.balance(ctx), mainKeyboard(), 30 * time.Second

	case text == btnQuickBuy:
		return b.buyAll(ctx, quickAsset), mainKeyboard(), 0

	case text == btnQuickSell:
		return b.sellAll(ctx, quickAsset), mainKeyboard(), 0

	case text == btnBuyAll:
		b.setPending(pendingBuyAll)
		return "💰 *Pilih Koin untuk Beli dengan Semua IDR:*", coinKeyboard(), 0

	case text == btnSellAll:
		b.setPending(pendingSellAll)
		return "🪙 *Pilih Koin untuk Jual Semua ke IDR:*", coinKeyboard(), 0

	case text == btnManualBuy:
		return "🛒 *Beli Koin Manual*\n\n" +
			"Format: /buy [pair] [jumlah_idr]\n" +
			"Contoh: /buy btc_idr 1000000\n\n" +
			"Top pairs: usdt_idr, eth_idr, btc_idr, sol_idr, xrp_idr", mainKeyboard(), 0

	case text == btnManualSell:
		return "💵 *Jual Koin Manual*\n\n" +
			"Format: /sell [pair] [jumlah_koin]\n" +
			"Contoh: /sell btc_idr 0.01\n\n" +
			"Top pairs: usdt_idr, eth_idr, btc_idr, sol_idr, xrp_idr", mainKeyboard(), 0

	case text == btnOpenOrders:
		return b.openOrders(ctx), mainKeyboard(), 0

	case text == btnPnL:
		return b.pnlReport(ctx), mainKeyboard(), 0

	case text == btnHistory:
		return b.orderHistory(ctx), mainKeyboard(), 0

	case text == btnCancel:
		return "❌ *Cancel Order*\n\n" +
			"Format: /cancel [pair] [order_id] [type]\n" +
			"Contoh: /cancel btc_idr 12345 buy", mainKeyboard(), 0

	case text == btnBack:
		b.setPending(pendingNone)
		return "🔙 Kembali ke menu utama", mainKeyboard(), 0

	case strings.HasPrefix(text, "/buyall "):
		return b.assetCommand(ctx, text, "/buyall", b.buyAll), mainKeyboard(), 0

	case strings.HasPrefix(text, "/sellall "):
		return b.assetCommand(ctx, text, "/sellall", b.sellAll), mainKeyboard(), 0

	case strings.HasPrefix(text, "/buy "):
		return b.manualBuy(ctx, text), mainKeyboard(), 0

	case strings.HasPrefix(text, "/sell "):
		return b.manualSell(ctx, text), mainKeyboard(), 0

	case strings.HasPrefix(text, "/cancel "):
		return b.cancel(ctx, text), mainKeyboard(), 0
	}

	if asset, ok := coinForLabel(text); ok {
		return b.coinPicked(ctx, asset), mainKeyboard(), 0
	}
	return "❌ Menu tidak dikenal. Gunakan keyboard di bawah.", mainKeyboard(), 0
}

// --- flows ---

func (b *Bot) priceBoard(ctx context.Context) string {
	pairs := make([]domain.Pair, 0, len(boardPairs))
	for _, id := range boardPairs {
		if p, err := domain.ParsePair(id); err == nil {
			pairs = append(pairs, p)
		}
	}
	entries, err := b.market.PriceBoard(ctx, pairs)
	if err != nil {
		return errorMessage(err)
	}
	return priceBoardMessage(entries)
}

func (b *Bot) balance(ctx context.Context) string {
	summary, err := b.orders.GetBalance(ctx)
	if err != nil {
		return errorMessage(err)
	}
	return balanceMessage(summary)
}

func (b *Bot) buyAll(ctx context.Context, asset string) string {
	order, err := b.orders.BuyAll(ctx, asset)
	if err != nil {
		return errorMessage(err)
	}
	return buyMessage(order)
}

func (b *Bot) sellAll(ctx context.Context, asset string) string {
	report, err := b.orders.SellAll(ctx, asset)
	if err != nil {
		return errorMessage(err)
	}
	return sellAllMessage(report)
}

func (b *Bot) coinPicked(ctx context.Context, asset string) string {
	switch b.takePending() {
	case pendingBuyAll:
		return b.buyAll(ctx, asset)
	case pendingSellAll:
		return b.sellAll(ctx, asset)
	}

	// No flow pending: just show the coin's price.
	pair := domain.NewPair(asset, domain.QuoteIDR)
	last, err := b.market.LastPrice(ctx, pair)
	if err != nil {
		return errorMessage(err)
	}
	return fmt.Sprintf("💰 *%s/IDR*: Rp %s\n\nGunakan tombol menu untuk trading!",
		strings.ToUpper(asset), FormatNumber(last))
}

func (b *Bot) assetCommand(ctx context.Context, text, cmd string, run func(context.Context, string) string) string {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return fmt.Sprintf("❌ Format salah. Gunakan: %s [koin]", cmd)
	}
	asset := strings.ToLower(parts[1])
	if !assetSupported(asset) {
		return fmt.Sprintf("❌ Koin tidak didukung. Top coins: %s...", strings.Join(supportedAssets[:10], ", "))
	}
	return run(ctx, asset)
}

func (b *Bot) manualBuy(ctx context.Context, text string) string {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return "❌ Format salah. Gunakan: /buy [pair] [jumlah_idr]"
	}
	pair, err := domain.ParsePair(parts[1])
	if err != nil {
		return errorMessage(err)
	}
	amount, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "❌ Jumlah harus berupa angka"
	}

	order, err := b.orders.PlaceBuy(ctx, pair, amount)
	if err != nil {
		return errorMessage(err)
	}
	return buyMessage(order)
}

func (b *Bot) manualSell(ctx context.Context, text string) string {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return "❌ Format salah. Gunakan: /sell [pair] [jumlah_koin]"
	}
	pair, err := domain.ParsePair(parts[1])
	if err != nil {
		return errorMessage(err)
	}
	amount, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "❌ Jumlah harus berupa angka"
	}

	order, err := b.orders.PlaceSell(ctx, pair, amount)
	if err != nil {
		return errorMessage(err)
	}
	return sellMessage(order)
}

func (b *Bot) cancel(ctx context.Context, text string) string {
	parts := strings.Fields(text)
	if len(parts) != 4 {
		return "❌ Format salah. Gunakan: /cancel [pair] [order_id] [type]"
	}
	pair, err := domain.ParsePair(parts[1])
	if err != nil {
		return errorMessage(err)
	}
	orderID := parts[2]
	side := domain.Side(strings.ToLower(parts[3]))

	if err := b.orders.CancelOrder(ctx, pair, orderID, side); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return fmt.Sprintf("ℹ️ Order %s sudah tidak aktif", orderID)
		}
		return errorMessage(err)
	}
	return fmt.Sprintf("✅ Order %s berhasil dibatalkan", orderID)
}

func (b *Bot) openOrders(ctx context.Context) string {
	orders, err := b.orders.ListAllOpenOrders(ctx)
	if err != nil {
		return errorMessage(err)
	}
	return openOrdersMessage(orders)
}

func (b *Bot) orderHistory(ctx context.Context) string {
	orders, err := b.orders.RecentOrders(ctx, 10)
	if err != nil {
		return errorMessage(err)
	}
	return historyMessage(orders)
}

func (b *Bot) pnlReport(ctx context.Context) string {
	reports := b.pnl.ComputeAll(ctx, supportedAssets)
	return pnlMessage(reports)
}

// --- state & transport helpers ---

func (b *Bot) setPending(p pendingAction) {
	b.mu.Lock()
	b.pending = p
	b.mu.Unlock()
}

func (b *Bot) takePending() pendingAction {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pending
	b.pending = pendingNone
	return p
}

func (b *Bot) send(chatID int64, text string, keyboard interface{}) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
		return nil
	}
	return &sent
}

// sendTransient sends a message that deletes itself after ttl.
func (b *Bot) sendTransient(chatID int64, text string, ttl time.Duration) {
	sent := b.send(chatID, text, nil)
	if sent == nil {
		return
	}
	messageID := sent.MessageID
	time.AfterFunc(ttl, func() { b.deleteMessage(chatID, messageID) })
}

// deleteMessage is best effort; old or already-deleted messages are fine.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Debug("delete message failed", zap.Error(err))
	}
}
