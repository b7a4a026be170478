// =================================
// File: internal/portfolio/valuation.go
// =================================
package portfolio

import (
	"context"
	"math"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/alansory/metina/internal/dlmm"
	"github.com/alansory/metina/internal/gateway"
)

// Fallback token decimals used when the indexer has no pair record.
// DLMM pairs of interest quote against SOL on the Y side.
const (
	defaultDecimalsX = 6
	defaultDecimalsY = 9
)

// Engine values one position at a time. Every upstream read degrades
// independently: a dead source costs precision, never the whole
// snapshot.
type Engine struct {
	indexer       Indexer
	chain         ChainReader
	quoter        SwapQuoter
	dustThreshold float64
	logger        *zap.Logger
}

func NewEngine(indexer Indexer, chain ChainReader, quoter SwapQuoter, dustThreshold float64, logger *zap.Logger) *Engine {
	return &Engine{
		indexer:       indexer,
		chain:         chain,
		quoter:        quoter,
		dustThreshold: dustThreshold,
		logger:        logger.Named("valuation"),
	}
}

// Valuate builds the snapshot for one position. A nil result means the
// position was filtered: nothing deposited and nothing on chain, or
// TVL under the dust threshold.
func (e *Engine) Valuate(ctx context.Context, positionID, owner string, rates Rates) *PositionSnapshot {
	deposits := e.indexer.Deposits(ctx, positionID)
	withdraws := e.indexer.Withdraws(ctx, positionID)
	claimFees := e.indexer.ClaimFees(ctx, positionID)

	totalDepositUsd := sumUsd(deposits)
	totalWithdrawUsd := sumUsd(withdraws)
	netDepositUsd := totalDepositUsd - totalWithdrawUsd

	indexed := e.indexer.Position(ctx, positionID)
	chainPos := e.chainPosition(ctx, positionID)

	pairAddress := resolvePairAddress(indexed, chainPos)
	var pairInfo *gateway.PairInfo
	var chainPair *dlmm.PairAccount
	if pairAddress != "" {
		pairInfo = e.indexer.Pair(ctx, pairAddress)
		chainPair = e.chainPair(ctx, pairAddress)
	}

	decimalsX, decimalsY := tokenDecimals(pairInfo)

	balanceX, balanceY, hasBalance := currentBalances(chainPos, indexed, decimalsX, decimalsY)
	if totalDepositUsd == 0 && totalWithdrawUsd == 0 && !hasBalance {
		return nil
	}

	priceX, priceY := e.resolvePrices(chainPair, pairInfo, deposits, decimalsX, rates)

	var tvlUsd float64
	if hasBalance {
		tvlUsd = balanceX*priceX + balanceY*priceY
	} else {
		tvlUsd = math.Max(0, netDepositUsd)
	}
	if tvlUsd < 0 {
		tvlUsd = 0
	}
	if tvlUsd < e.dustThreshold {
		return nil
	}

	claimedFeeUsd := e.claimedFees(ctx, indexed, owner, pairAddress)
	unclaimedFeeUsd := e.unclaimedFees(ctx, chainPair, chainPos, indexed, pairInfo, claimFees, priceX, priceY, decimalsX, decimalsY, rates)

	totalValueUsd := tvlUsd + unclaimedFeeUsd + claimedFeeUsd
	upnlUsd := totalValueUsd - netDepositUsd

	snap := &PositionSnapshot{
		Address:          positionID,
		PairAddress:      pairAddress,
		Owner:            owner,
		TotalDepositUsd:  totalDepositUsd,
		TotalWithdrawUsd: totalWithdrawUsd,
		NetDepositUsd:    netDepositUsd,
		CurrentBalanceX:  balanceX,
		CurrentBalanceY:  balanceY,
		TvlUsd:           tvlUsd,
		ClaimedFeeUsd:    claimedFeeUsd,
		UnclaimedFeeUsd:  unclaimedFeeUsd,
		PriceXUsd:        priceX,
		PriceYUsd:        priceY,
		Upnl: UPNL{
			USD:     upnlUsd,
			SOL:     upnlUsd / effectiveSolPrice(rates),
			Percent: upnlPercent(upnlUsd, netDepositUsd, totalValueUsd),
		},
	}
	if pairInfo != nil {
		snap.PairName = pairInfo.Name
		snap.TokenXSymbol = pairInfo.TokenX.Symbol
		snap.TokenYSymbol = pairInfo.TokenY.Symbol
	}
	return snap
}

func (e *Engine) chainPosition(ctx context.Context, positionID string) *dlmm.PositionAccount {
	key, err := solana.PublicKeyFromBase58(positionID)
	if err != nil {
		return nil
	}
	pos, err := e.chain.PositionAccount(ctx, key)
	if err != nil {
		e.logger.Debug("chain position unavailable", zap.String("position", positionID), zap.Error(err))
		return nil
	}
	return pos
}

func (e *Engine) chainPair(ctx context.Context, pairAddress string) *dlmm.PairAccount {
	key, err := solana.PublicKeyFromBase58(pairAddress)
	if err != nil {
		return nil
	}
	pair, err := e.chain.PairAccount(ctx, key)
	if err != nil {
		e.logger.Debug("chain pair unavailable", zap.String("pair", pairAddress), zap.Error(err))
		return nil
	}
	return pair
}

func resolvePairAddress(indexed *gateway.IndexedPosition, chainPos *dlmm.PositionAccount) string {
	if indexed != nil && indexed.PairAddress != "" {
		return indexed.PairAddress
	}
	if chainPos != nil && !chainPos.LbPair.IsZero() {
		return chainPos.LbPair.String()
	}
	return ""
}

func tokenDecimals(pairInfo *gateway.PairInfo) (int, int) {
	decimalsX, decimalsY := defaultDecimalsX, defaultDecimalsY
	if pairInfo != nil {
		if pairInfo.TokenX.Decimals > 0 {
			decimalsX = pairInfo.TokenX.Decimals
		}
		if pairInfo.TokenY.Decimals > 0 {
			decimalsY = pairInfo.TokenY.Decimals
		}
	}
	return decimalsX, decimalsY
}

// currentBalances prefers the on-chain account read; the indexer's
// reported raw amounts are the fallback. Negative indexer values are
// clamped to zero.
func currentBalances(chainPos *dlmm.PositionAccount, indexed *gateway.IndexedPosition, decimalsX, decimalsY int) (float64, float64, bool) {
	if chainPos != nil {
		return scaleRaw(float64(chainPos.AmountXRaw), decimalsX),
			scaleRaw(float64(chainPos.AmountYRaw), decimalsY),
			true
	}
	if indexed != nil && indexed.TokenXAmount != nil && indexed.TokenYAmount != nil {
		return scaleRaw(math.Max(0, *indexed.TokenXAmount), decimalsX),
			scaleRaw(math.Max(0, *indexed.TokenYAmount), decimalsY),
			true
	}
	return 0, 0, false
}

// resolvePrices walks the price fallback chain until both sides have a
// non-zero USD price: on-chain reserve ratio, indexer reserve ratio,
// then the latest deposit's realized price.
func (e *Engine) resolvePrices(chainPair *dlmm.PairAccount, pairInfo *gateway.PairInfo, deposits []gateway.LedgerEvent, decimalsX int, rates Rates) (float64, float64) {
	solPrice := effectiveSolPrice(rates)

	if chainPair != nil && dlmm.IsSOLMint(chainPair.MintY.String()) {
		reserveX := scaleRaw(float64(chainPair.ReserveXRaw), decimalsX)
		reserveYSol := float64(chainPair.ReserveYRaw) / dlmm.LamportsPerSOL
		if reserveX > 0 && reserveYSol > 0 {
			return reserveYSol * solPrice / reserveX, solPrice
		}
	}

	if pairInfo != nil && dlmm.IsSOLMint(pairInfo.MintY) {
		reserveX := scaleRaw(pairInfo.ReserveX, decimalsX)
		reserveYSol := pairInfo.ReserveY / dlmm.LamportsPerSOL
		if reserveX > 0 && reserveYSol > 0 {
			return reserveYSol * solPrice / reserveX, solPrice
		}
	}

	// Last resort: the latest deposit's realized price. A side the
	// deposit cannot price stays at zero.
	if len(deposits) > 0 {
		last := deposits[len(deposits)-1]
		var priceX, priceY float64
		if last.TokenXAmount > 0 {
			priceX = last.TokenXUsdAmount / last.TokenXAmount
		}
		if pairInfo != nil && dlmm.IsSOLMint(pairInfo.MintY) {
			priceY = solPrice
		} else if last.TokenYAmount > 0 {
			priceY = last.TokenYUsdAmount / last.TokenYAmount
		}
		return priceX, priceY
	}
	return 0, 0
}

func (e *Engine) claimedFees(ctx context.Context, indexed *gateway.IndexedPosition, owner, pairAddress string) float64 {
	if indexed != nil && indexed.TotalFeeUsdClaimed != nil {
		return *indexed.TotalFeeUsdClaimed
	}
	if pairAddress == "" {
		return 0
	}
	earning := e.indexer.WalletEarning(ctx, owner, pairAddress)
	if earning == nil {
		return 0
	}
	return earning.TotalFeeUsdClaimed
}

// unclaimedFees walks the fee fallback chain: on-chain pending-fee
// calculation, the indexer's claimable-fee accessor, the indexer's raw
// fee counters with already-claimed token amounts subtracted, and
// finally the claim-fee ledger summed in USD. The raw-counter path
// assumes the counters may be lifetime totals; the subtraction is
// best effort.
func (e *Engine) unclaimedFees(
	ctx context.Context,
	chainPair *dlmm.PairAccount,
	chainPos *dlmm.PositionAccount,
	indexed *gateway.IndexedPosition,
	pairInfo *gateway.PairInfo,
	claimFees []gateway.LedgerEvent,
	priceX, priceY float64,
	decimalsX, decimalsY int,
	rates Rates,
) float64 {
	solPrice := effectiveSolPrice(rates)

	if chainPair != nil && chainPos != nil {
		fees := dlmm.UnclaimedLpFee(chainPair, chainPos)
		if !fees.IsZero() {
			return e.priceOnchainFees(ctx, fees, chainPair, decimalsX, decimalsY, solPrice)
		}
	}

	if indexed != nil && indexed.ClaimableFeeXUsd != nil && indexed.ClaimableFeeYUsd != nil {
		return *indexed.ClaimableFeeXUsd + *indexed.ClaimableFeeYUsd
	}

	if indexed != nil && indexed.FeeX != nil && indexed.FeeY != nil {
		claimedX, claimedY := claimedTokenAmounts(chainPos, claimFees, decimalsX, decimalsY)
		unclaimedX := math.Max(0, scaleRaw(*indexed.FeeX, decimalsX)-claimedX)
		unclaimedY := math.Max(0, scaleRaw(*indexed.FeeY, decimalsY)-claimedY)
		return unclaimedX*priceX + unclaimedY*priceY
	}

	return sumUsd(claimFees)
}

// priceOnchainFees converts raw pending fees into USD. The non-SOL
// side goes through a swap quote so the figure reflects realizable
// output, not a reserve-ratio estimate. SOL-side lamports divide by
// 1e9 directly.
func (e *Engine) priceOnchainFees(ctx context.Context, fees dlmm.UnclaimedFees, chainPair *dlmm.PairAccount, decimalsX, decimalsY int, solPrice float64) float64 {
	var usd float64

	if fees.FeeXRaw > 0 {
		mintX := chainPair.MintX.String()
		amountX := scaleRaw(float64(fees.FeeXRaw), decimalsX)
		if dlmm.IsSOLMint(mintX) {
			usd += float64(fees.FeeXRaw) / dlmm.LamportsPerSOL * solPrice
		} else if e.quoter != nil {
			usd += e.quoter.TokenToSol(ctx, mintX, amountX, decimalsX) * solPrice
		}
	}

	if fees.FeeYRaw > 0 {
		mintY := chainPair.MintY.String()
		if dlmm.IsSOLMint(mintY) {
			usd += float64(fees.FeeYRaw) / dlmm.LamportsPerSOL * solPrice
		} else if e.quoter != nil {
			amountY := scaleRaw(float64(fees.FeeYRaw), decimalsY)
			usd += e.quoter.TokenToSol(ctx, mintY, amountY, decimalsY) * solPrice
		}
	}
	return usd
}

func sumUsd(events []gateway.LedgerEvent) float64 {
	var total float64
	for _, event := range events {
		total += event.TokenXUsdAmount + event.TokenYUsdAmount
	}
	return total
}

// claimedTokenAmounts reports how much fee has already been claimed,
// in token units. The on-chain claimed counters are authoritative;
// the claim-fee ledger's token amounts are the fallback.
func claimedTokenAmounts(chainPos *dlmm.PositionAccount, events []gateway.LedgerEvent, decimalsX, decimalsY int) (float64, float64) {
	if chainPos != nil {
		return scaleRaw(float64(chainPos.FeeXClaimedRaw), decimalsX),
			scaleRaw(float64(chainPos.FeeYClaimedRaw), decimalsY)
	}
	var x, y float64
	for _, event := range events {
		x += event.TokenXAmount
		y += event.TokenYAmount
	}
	return x, y
}

func scaleRaw(raw float64, decimals int) float64 {
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return raw / scale
}
