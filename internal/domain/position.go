package domain

// PnLReport is the derived profit-and-loss view for one asset. The exchange
// balance stays the ground truth for holdings; this is a projection computed
// from trade history with a running-average cost basis.
type PnLReport struct {
	Asset         string
	HeldAmount    float64 // units tracked through the buy history
	AverageCost   float64 // quote currency per unit
	LastPrice     float64 // market price used for the unrealized leg
	RealizedPnL   float64
	UnrealizedPnL float64

	// UntrackedSells is set when sells exceeded the tracked buy history
	// (history predates tracking); the excess realizes against a zero cost
	// basis instead of failing.
	UntrackedSells bool
}
