package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnPrices     = "📊 Harga Koin"
	btnBalance    = "💰 Cek Saldo"
	btnQuickBuy   = "🚀 Beli SOL"
	btnQuickSell  = "💸 Jual SOL"
	btnBuyAll     = "💰 Beli All IDR"
	btnSellAll    = "🪙 Jual All ke IDR"
	btnManualBuy  = "🛒 Beli Manual"
	btnManualSell = "💵 Jual Manual"
	btnOpenOrders = "📜 Order Aktif"
	btnPnL        = "📈 PnL"
	btnHistory    = "📋 Riwayat Order"
	btnCancel     = "❌ Cancel Order"
	btnBack       = "🔙 Kembali"
)

// coinButtons maps the coin-picker labels to asset symbols, highest volume
// first.
var coinButtons = []struct {
	Label string
	Asset string
}{
	{"💎 USDT", "usdt"}, {"⚡ ETH", "eth"}, {"₿ BTC", "btc"},
	{"🚀 SOL", "sol"}, {"💧 XRP", "xrp"}, {"🐕 DOGE", "doge"},
	{"🔗 LINK", "link"}, {"🎴 ADA", "ada"}, {"🟡 BNB", "bnb"},
	{"💵 USDC", "usdc"}, {"⚡ TRX", "trx"}, {"🪙 LTC", "ltc"},
}

// supportedAssets are the coins accepted by /buyall and /sellall.
var supportedAssets = []string{
	"usdt", "eth", "btc", "sol", "xrp", "doge", "link", "ada", "bnb", "usdc",
	"trx", "ltc", "avax", "dot", "bch", "sui", "hbar", "arb", "pol", "xlm",
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPrices),
			tgbotapi.NewKeyboardButton(btnBalance),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnQuickBuy),
			tgbotapi.NewKeyboardButton(btnQuickSell),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBuyAll),
			tgbotapi.NewKeyboardButton(btnSellAll),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnManualBuy),
			tgbotapi.NewKeyboardButton(btnManualSell),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnOpenOrders),
			tgbotapi.NewKeyboardButton(btnPnL),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnHistory),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func coinKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(coinButtons); i += 3 {
		var row []tgbotapi.KeyboardButton
		for j := i; j < i+3 && j < len(coinButtons); j++ {
			row = append(row, tgbotapi.NewKeyboardButton(coinButtons[j].Label))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func coinForLabel(label string) (string, bool) {
	for _, c := range coinButtons {
		if c.Label == label {
			return c.Asset, true
		}
	}
	return "", false
}

func assetSupported(asset string) bool {
	for _, a := range supportedAssets {
		if a == asset {
			return true
		}
	}
	return false
}
