// =================================
// File: internal/pnlcard/builder.go
// =================================

// Package pnlcard reconstructs a closed position's lifetime profit and
// loss from a single transaction reference.
package pnlcard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alansory/metina/internal/dlmm"
	"github.com/alansory/metina/internal/gateway"
	"github.com/alansory/metina/internal/portfolio"
)

var (
	ErrEmptyInput       = errors.New("transaction reference is empty")
	ErrNoPositionInTx   = errors.New("transaction has no position instruction")
	ErrPositionUnknown  = errors.New("position not found in indexer")
	ErrUnrecognizedLink = errors.New("unrecognized transaction link")
)

// explorerPatterns pull the signature out of the common explorer URL
// formats. Order matters only for readability; at most one matches.
var explorerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`solscan\.io/tx/([1-9A-HJ-NP-Za-km-z]+)`),
	regexp.MustCompile(`solanabeach\.io/transaction/([1-9A-HJ-NP-Za-km-z]+)`),
	regexp.MustCompile(`explorer\.solana\.com/tx/([1-9A-HJ-NP-Za-km-z]+)`),
	regexp.MustCompile(`solana\.fm/tx/([1-9A-HJ-NP-Za-km-z]+)`),
	regexp.MustCompile(`oklink\.com/sol/tx/([1-9A-HJ-NP-Za-km-z]+)`),
}

var base58Signature = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{64,96}$`)

// ExtractTxID accepts either a raw signature or an explorer link and
// returns the bare signature.
func ExtractTxID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	for _, pattern := range explorerPatterns {
		if match := pattern.FindStringSubmatch(trimmed); match != nil {
			return match[1], nil
		}
	}
	if base58Signature.MatchString(trimmed) {
		return trimmed, nil
	}
	return "", ErrUnrecognizedLink
}

// ChainReader is the one RPC read the builder needs.
type ChainReader interface {
	TransactionInstructions(ctx context.Context, signature string) ([]gateway.TxInstruction, error)
}

// Indexer is the ledger slice of the indexer API the builder consumes.
type Indexer interface {
	Position(ctx context.Context, address string) *gateway.IndexedPosition
	Deposits(ctx context.Context, address string) []gateway.LedgerEvent
	Withdraws(ctx context.Context, address string) []gateway.LedgerEvent
	ClaimFees(ctx context.Context, address string) []gateway.LedgerEvent
	ClaimRewards(ctx context.Context, address string) []gateway.LedgerEvent
	Pair(ctx context.Context, address string) *gateway.PairInfo
}

// Card is the data behind a shareable PNL image.
type Card struct {
	PositionAddress string
	PairAddress     string
	PairName        string

	TotalDepositUsd  float64
	TotalWithdrawUsd float64
	ClaimedFeeUsd    float64
	RewardUsd        float64

	PnlUsd     float64
	PnlSol     float64
	PnlPercent float64

	OpenedAt time.Time
	ClosedAt time.Time
	Duration string
}

type Builder struct {
	indexer Indexer
	chain   ChainReader
	logger  *zap.Logger
}

func NewBuilder(indexer Indexer, chain ChainReader, logger *zap.Logger) *Builder {
	return &Builder{
		indexer: indexer,
		chain:   chain,
		logger:  logger.Named("pnlcard"),
	}
}

// Build resolves the transaction to a position and folds its full
// ledger into a lifetime PNL card.
func (b *Builder) Build(ctx context.Context, txRef string, rates portfolio.Rates) (*Card, error) {
	signature, err := ExtractTxID(txRef)
	if err != nil {
		return nil, err
	}

	positionAddress, err := b.positionFromTransaction(ctx, signature)
	if err != nil {
		return nil, err
	}

	deposits := b.indexer.Deposits(ctx, positionAddress)
	withdraws := b.indexer.Withdraws(ctx, positionAddress)
	claimFees := b.indexer.ClaimFees(ctx, positionAddress)
	claimRewards := b.indexer.ClaimRewards(ctx, positionAddress)
	if len(deposits) == 0 && len(withdraws) == 0 {
		return nil, ErrPositionUnknown
	}

	card := &Card{
		PositionAddress:  positionAddress,
		TotalDepositUsd:  sumUsd(deposits),
		TotalWithdrawUsd: sumUsd(withdraws),
		ClaimedFeeUsd:    sumUsd(claimFees),
		RewardUsd:        sumUsd(claimRewards),
	}

	if indexed := b.indexer.Position(ctx, positionAddress); indexed != nil {
		card.PairAddress = indexed.PairAddress
		// The lifetime claimed-fee counter is authoritative when the
		// indexer carries it; the claim ledger is the fallback above.
		if indexed.TotalFeeUsdClaimed != nil {
			card.ClaimedFeeUsd = *indexed.TotalFeeUsdClaimed
		}
		if pair := b.indexer.Pair(ctx, indexed.PairAddress); pair != nil {
			card.PairName = pair.Name
		}
	}

	totalValue := card.TotalWithdrawUsd + card.ClaimedFeeUsd + card.RewardUsd
	card.PnlUsd = totalValue - card.TotalDepositUsd
	card.PnlPercent = lifetimePercent(card.PnlUsd, card.TotalDepositUsd, totalValue)
	card.PnlSol = card.PnlUsd / solPrice(rates)

	card.OpenedAt, card.ClosedAt = lifetimeBounds(deposits, withdraws, claimFees, claimRewards)
	card.Duration = formatDuration(card.ClosedAt.Sub(card.OpenedAt))
	return card, nil
}

// positionFromTransaction finds the last instruction addressed to the
// DLMM program and takes its first account as the position address.
func (b *Builder) positionFromTransaction(ctx context.Context, signature string) (string, error) {
	instructions, err := b.chain.TransactionInstructions(ctx, signature)
	if err != nil {
		return "", fmt.Errorf("failed to load transaction: %w", err)
	}
	for i := len(instructions) - 1; i >= 0; i-- {
		if instructions[i].ProgramID != dlmm.ProgramID {
			continue
		}
		if len(instructions[i].Accounts) == 0 {
			continue
		}
		return instructions[i].Accounts[0], nil
	}
	return "", ErrNoPositionInTx
}

func lifetimePercent(pnlUsd, totalDepositUsd, totalValueUsd float64) float64 {
	switch {
	case totalDepositUsd > 0:
		return pnlUsd / totalDepositUsd * 100
	case totalValueUsd > 0:
		return 100
	case totalValueUsd < 0:
		return -100
	default:
		return 0
	}
}

func solPrice(rates portfolio.Rates) float64 {
	if rates.SOL > 0 {
		return rates.SOL
	}
	return portfolio.DefaultRates().SOL
}

func lifetimeBounds(ledgers ...[]gateway.LedgerEvent) (time.Time, time.Time) {
	var first, last int64
	for _, ledger := range ledgers {
		for _, event := range ledger {
			if event.OnchainTimestamp == 0 {
				continue
			}
			if first == 0 || event.OnchainTimestamp < first {
				first = event.OnchainTimestamp
			}
			if event.OnchainTimestamp > last {
				last = event.OnchainTimestamp
			}
		}
	}
	if first == 0 {
		return time.Time{}, time.Time{}
	}
	return time.Unix(first, 0).UTC(), time.Unix(last, 0).UTC()
}

// formatDuration renders HH:MM:SS; hours grow past two digits rather
// than rolling into days.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func sumUsd(events []gateway.LedgerEvent) float64 {
	var total float64
	for _, event := range events {
		total += event.TokenXUsdAmount + event.TokenYUsdAmount
	}
	return total
}
