// =================================
// File: internal/portfolio/types.go
// =================================

// Package portfolio locates, values and aggregates a wallet's DLMM
// liquidity positions.
package portfolio

import (
	"context"
	"encoding/json"

	"github.com/gagliardetto/solana-go"

	"github.com/alansory/metina/internal/dlmm"
	"github.com/alansory/metina/internal/gateway"
)

// Indexer is the slice of the DLMM indexer API the portfolio core
// consumes. Implementations never fail the caller: missing data comes
// back as nil or empty.
type Indexer interface {
	WalletPositions(ctx context.Context, owner string) map[string]json.RawMessage
	Position(ctx context.Context, address string) *gateway.IndexedPosition
	Deposits(ctx context.Context, address string) []gateway.LedgerEvent
	Withdraws(ctx context.Context, address string) []gateway.LedgerEvent
	ClaimFees(ctx context.Context, address string) []gateway.LedgerEvent
	ClaimRewards(ctx context.Context, address string) []gateway.LedgerEvent
	Pair(ctx context.Context, address string) *gateway.PairInfo
	WalletEarning(ctx context.Context, owner, pair string) *gateway.WalletEarning
}

// ChainReader reads DLMM state from an RPC node.
type ChainReader interface {
	PositionsByOwner(ctx context.Context, owner solana.PublicKey) (map[string]*dlmm.PositionAccount, error)
	PositionAccount(ctx context.Context, address solana.PublicKey) (*dlmm.PositionAccount, error)
	PairAccount(ctx context.Context, address solana.PublicKey) (*dlmm.PairAccount, error)
	Signatures(ctx context.Context, address solana.PublicKey, limit int) ([]string, error)
	TransactionAccounts(ctx context.Context, signature string) ([]string, error)
}

// SwapQuoter converts a token amount into SOL at realizable swap
// prices. Returns 0 when no route exists.
type SwapQuoter interface {
	TokenToSol(ctx context.Context, mint string, amount float64, decimals int) float64
}

// UPNL is a position's unrealized profit and loss in every display
// denomination.
type UPNL struct {
	USD     float64
	SOL     float64
	Percent float64
}

// PositionSnapshot is the normalized valuation of one position. It is
// rebuilt from scratch every refresh, never patched in place.
type PositionSnapshot struct {
	Address     string
	PairAddress string
	Owner       string
	PairName    string

	TotalDepositUsd  float64
	TotalWithdrawUsd float64
	NetDepositUsd    float64

	CurrentBalanceX float64
	CurrentBalanceY float64
	TvlUsd          float64

	ClaimedFeeUsd   float64
	UnclaimedFeeUsd float64

	TokenXSymbol string
	TokenYSymbol string
	PriceXUsd    float64
	PriceYUsd    float64

	Upnl UPNL
}

// Totals aggregates snapshot figures across the whole portfolio. The
// percentage is computed over summed net deposits, so a tiny position
// with an extreme percentage cannot distort the portfolio figure.
type Totals struct {
	TvlUsd          float64
	ClaimedFeeUsd   float64
	UnclaimedFeeUsd float64
	UpnlUsd         float64
	UpnlSol         float64
	UpnlPercent     float64
	Positions       int
}

// ComputeTotals folds snapshots into portfolio totals.
func ComputeTotals(snapshots []*PositionSnapshot, rates Rates) Totals {
	var totals Totals
	var netDeposits float64
	for _, snap := range snapshots {
		totals.TvlUsd += snap.TvlUsd
		totals.ClaimedFeeUsd += snap.ClaimedFeeUsd
		totals.UnclaimedFeeUsd += snap.UnclaimedFeeUsd
		totals.UpnlUsd += snap.Upnl.USD
		netDeposits += snap.NetDepositUsd
	}
	totals.Positions = len(snapshots)
	// With zero summed net deposits the total value reduces to the
	// summed UPNL itself.
	totals.UpnlPercent = upnlPercent(totals.UpnlUsd, netDeposits, totals.UpnlUsd+netDeposits)
	totals.UpnlSol = totals.UpnlUsd / effectiveSolPrice(rates)
	return totals
}
