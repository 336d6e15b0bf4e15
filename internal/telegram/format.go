package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
	"github.com/Angga2076/Bot-Railway01/internal/usecase"
)

// feeBuffer shaves the displayed coin estimate on buys to account for the
// taker fee, so the user is not promised more than the fill delivers.
const feeBuffer = 0.998

// FormatNumber renders amounts the way the bot always has: thousands
// separators with two decimals at 1 and above, up to eight trimmed decimals
// below.
func FormatNumber(num float64) string {
	if num >= 1 || num <= -1 {
		return groupThousands(num)
	}
	s := strconv.FormatFloat(num, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func groupThousands(num float64) string {
	s := strconv.FormatFloat(num, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + "." + fracPart
	if neg {
		return "-" + out
	}
	return out
}

func priceBoardMessage(entries []usecase.BoardEntry) string {
	var b strings.Builder
	b.WriteString("📊 *Harga Koin Terkini*\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("*%s/IDR*: Rp %s\n", strings.ToUpper(e.Pair.Base), FormatNumber(e.Last)))
	}
	b.WriteString(fmt.Sprintf("\n🕐 Update: %s", time.Now().Format("15:04:05")))
	return b.String()
}

func balanceMessage(summary *usecase.BalanceSummary) string {
	var b strings.Builder
	b.WriteString("💰 *Saldo Akun*\n\n")
	for _, a := range summary.Assets {
		total := a.Available + a.Hold
		if a.Asset == domain.QuoteIDR {
			b.WriteString(fmt.Sprintf("💵 *IDR*: Rp %s\n\n", FormatNumber(total)))
			continue
		}
		b.WriteString(fmt.Sprintf("₿ *%s*: %s\n", strings.ToUpper(a.Asset), FormatNumber(total)))
		if a.ValueIDR > 0 {
			b.WriteString(fmt.Sprintf("   └ ≈ Rp %s\n", FormatNumber(a.ValueIDR)))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("💎 *Total Aset*: Rp %s", FormatNumber(summary.TotalIDR)))
	return b.String()
}

func buyMessage(order *domain.Order) string {
	estimated := 0.0
	if order.Price > 0 {
		estimated = order.Amount * feeBuffer / order.Price
	}
	return fmt.Sprintf("✅ *Order Buy Berhasil*\n\n"+
		"🪙 Pair: %s\n"+
		"💰 Harga: Rp %s\n"+
		"💵 Total IDR: Rp %s\n"+
		"🎯 Estimasi Koin: %s\n"+
		"📋 Order ID: %s",
		strings.ToUpper(order.Pair.String()),
		FormatNumber(order.Price),
		FormatNumber(order.Amount),
		FormatNumber(estimated),
		order.ID)
}

func sellMessage(order *domain.Order) string {
	return fmt.Sprintf("✅ *Order Sell Berhasil*\n\n"+
		"🪙 Pair: %s\n"+
		"💰 Harga: Rp %s\n"+
		"🎯 Jumlah Koin: %s\n"+
		"💵 Estimasi IDR: Rp %s\n"+
		"📋 Order ID: %s",
		strings.ToUpper(order.Pair.String()),
		FormatNumber(order.Price),
		FormatNumber(order.Amount),
		FormatNumber(order.Amount*order.Price),
		order.ID)
}

func sellAllMessage(report *usecase.SellAllReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🪙 *Jual Semua %s*\n\n", strings.ToUpper(report.Asset)))
	b.WriteString(fmt.Sprintf("Jumlah: %s %s\n\n", FormatNumber(report.Amount), strings.ToUpper(report.Asset)))
	for _, o := range report.Outcomes {
		if o.Err != nil {
			b.WriteString(fmt.Sprintf("❌ %s: %v\n", strings.ToUpper(o.Pair.String()), o.Err))
			continue
		}
		b.WriteString(fmt.Sprintf("✅ %s @ Rp %s (order %s)\n",
			strings.ToUpper(o.Pair.String()), FormatNumber(o.Order.Price), o.Order.ID))
	}
	if failed := report.Failed(); failed > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d pair gagal dijual", failed))
	}
	return b.String()
}

func openOrdersMessage(orders []domain.Order) string {
	if len(orders) == 0 {
		return "📜 Tidak ada order aktif"
	}
	var b strings.Builder
	b.WriteString("📜 *Order Aktif*\n\n")
	for _, o := range orders {
		b.WriteString(fmt.Sprintf("🔸 %s\n"+
			"   Type: %s\n"+
			"   Price: Rp %s\n"+
			"   Remain: %s\n"+
			"   ID: %s\n\n",
			strings.ToUpper(o.Pair.String()),
			o.Side,
			FormatNumber(o.Price),
			FormatNumber(o.Remaining),
			o.ID))
	}
	return b.String()
}

func historyMessage(orders []*domain.Order) string {
	if len(orders) == 0 {
		return "📋 Belum ada riwayat order"
	}
	var b strings.Builder
	b.WriteString("📋 *Riwayat Order*\n\n")
	for _, o := range orders {
		icon := "🟢"
		if o.Side == domain.SideSell {
			icon = "🔴"
		}

		amount := FormatNumber(o.Amount) + " " + strings.ToUpper(o.Pair.Base)
		if o.SizingMode == domain.SizeByQuote {
			amount = "Rp " + FormatNumber(o.Amount)
		}

		b.WriteString(fmt.Sprintf("%s *%s %s*\n"+
			"   %s @ Rp %s\n"+
			"   %s | ID: %s\n\n",
			icon, strings.ToUpper(string(o.Side)), strings.ToUpper(o.Pair.String()),
			amount, FormatNumber(o.Price),
			o.SubmitTime.Format("02/01 15:04"), o.ID))
	}
	return b.String()
}

func pnlMessage(reports []*domain.PnLReport) string {
	if len(reports) == 0 {
		return "📈 Belum ada transaksi"
	}
	var b strings.Builder
	b.WriteString("📈 *Analisis PnL*\n\n")

	total := 0.0
	for _, r := range reports {
		icon := "📈"
		if r.RealizedPnL < 0 {
			icon = "📉"
		}
		b.WriteString(fmt.Sprintf("%s *%s*\n", icon, strings.ToUpper(r.Asset)))
		if r.HeldAmount > 0 {
			b.WriteString(fmt.Sprintf("   Hold: %s @ Rp %s\n", FormatNumber(r.HeldAmount), FormatNumber(r.AverageCost)))
			b.WriteString(fmt.Sprintf("   Unrealized: Rp %s\n", FormatNumber(r.UnrealizedPnL)))
		}
		b.WriteString(fmt.Sprintf("   Realized: Rp %s\n", FormatNumber(r.RealizedPnL)))
		if r.UntrackedSells {
			b.WriteString("   ⚠️ Sebagian history jual tidak tercatat\n")
		}
		b.WriteString("\n")
		total += r.RealizedPnL + r.UnrealizedPnL
	}

	icon := "📈"
	if total < 0 {
		icon = "📉"
	}
	b.WriteString(fmt.Sprintf("%s *Total PnL*: Rp %s", icon, FormatNumber(total)))
	return b.String()
}

func errorMessage(err error) string {
	return "❌ " + err.Error()
}
