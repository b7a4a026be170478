// =================================
// File: internal/pnlcard/builder_test.go
// =================================
package pnlcard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alansory/metina/internal/dlmm"
	"github.com/alansory/metina/internal/gateway"
	"github.com/alansory/metina/internal/portfolio"
)

const testSig = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"

func TestExtractTxIDExplorerLinks(t *testing.T) {
	links := []string{
		"https://solscan.io/tx/" + testSig,
		"https://solanabeach.io/transaction/" + testSig,
		"https://explorer.solana.com/tx/" + testSig + "?cluster=mainnet",
		"https://solana.fm/tx/" + testSig,
		"https://www.oklink.com/sol/tx/" + testSig,
	}
	for _, link := range links {
		sig, err := ExtractTxID(link)
		require.NoError(t, err, link)
		assert.Equal(t, testSig, sig, link)
	}
}

func TestExtractTxIDBareSignature(t *testing.T) {
	sig, err := ExtractTxID("  " + testSig + "  ")
	require.NoError(t, err)
	assert.Equal(t, testSig, sig)
}

func TestExtractTxIDRejectsGarbage(t *testing.T) {
	_, err := ExtractTxID("")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ExtractTxID("https://example.com/tx/abc")
	assert.ErrorIs(t, err, ErrUnrecognizedLink)

	_, err = ExtractTxID("0OIl-not-base58")
	assert.ErrorIs(t, err, ErrUnrecognizedLink)
}

type fakeChain struct {
	instructions map[string][]gateway.TxInstruction
}

func (f *fakeChain) TransactionInstructions(_ context.Context, signature string) ([]gateway.TxInstruction, error) {
	inst, ok := f.instructions[signature]
	if !ok {
		return nil, errors.New("unavailable")
	}
	return inst, nil
}

type fakeIndexer struct {
	positions    map[string]*gateway.IndexedPosition
	deposits     map[string][]gateway.LedgerEvent
	withdraws    map[string][]gateway.LedgerEvent
	claimFees    map[string][]gateway.LedgerEvent
	claimRewards map[string][]gateway.LedgerEvent
	pairs        map[string]*gateway.PairInfo
}

func (f *fakeIndexer) Position(_ context.Context, address string) *gateway.IndexedPosition {
	return f.positions[address]
}
func (f *fakeIndexer) Deposits(_ context.Context, address string) []gateway.LedgerEvent {
	return f.deposits[address]
}
func (f *fakeIndexer) Withdraws(_ context.Context, address string) []gateway.LedgerEvent {
	return f.withdraws[address]
}
func (f *fakeIndexer) ClaimFees(_ context.Context, address string) []gateway.LedgerEvent {
	return f.claimFees[address]
}
func (f *fakeIndexer) ClaimRewards(_ context.Context, address string) []gateway.LedgerEvent {
	return f.claimRewards[address]
}
func (f *fakeIndexer) Pair(_ context.Context, address string) *gateway.PairInfo {
	return f.pairs[address]
}

func TestBuildLifetimeCard(t *testing.T) {
	chain := &fakeChain{
		instructions: map[string][]gateway.TxInstruction{
			testSig: {
				{ProgramID: "SomeOtherProgram", Accounts: []string{"x"}},
				{ProgramID: dlmm.ProgramID, Accounts: []string{"early", "y"}},
				{ProgramID: dlmm.ProgramID, Accounts: []string{"pos1", "y"}},
			},
		},
	}
	indexer := &fakeIndexer{
		positions: map[string]*gateway.IndexedPosition{
			"pos1": {PairAddress: "pair1"},
		},
		pairs: map[string]*gateway.PairInfo{
			"pair1": {Name: "TKN-SOL"},
		},
		deposits: map[string][]gateway.LedgerEvent{
			"pos1": {{TokenXUsdAmount: 100, OnchainTimestamp: 1_700_000_000}},
		},
		withdraws: map[string][]gateway.LedgerEvent{
			"pos1": {{TokenXUsdAmount: 110, OnchainTimestamp: 1_700_003_723}},
		},
		claimFees: map[string][]gateway.LedgerEvent{
			"pos1": {{TokenXUsdAmount: 5, OnchainTimestamp: 1_700_002_000}},
		},
	}
	builder := NewBuilder(indexer, chain, zaptest.NewLogger(t))

	card, err := builder.Build(context.Background(), testSig, portfolio.DefaultRates())
	require.NoError(t, err)
	// Last DLMM instruction wins, first account is the position.
	assert.Equal(t, "pos1", card.PositionAddress)
	assert.Equal(t, "TKN-SOL", card.PairName)
	assert.InDelta(t, 15.0, card.PnlUsd, 1e-9) // 110 + 5 - 100
	assert.InDelta(t, 15.0, card.PnlPercent, 1e-9)
	assert.InDelta(t, 0.1, card.PnlSol, 1e-9)
	assert.Equal(t, "01:02:03", card.Duration) // 3723 seconds
}

func TestBuildPrefersLifetimeClaimedCounter(t *testing.T) {
	claimed := 42.0
	chain := &fakeChain{
		instructions: map[string][]gateway.TxInstruction{
			testSig: {{ProgramID: dlmm.ProgramID, Accounts: []string{"pos1"}}},
		},
	}
	indexer := &fakeIndexer{
		positions: map[string]*gateway.IndexedPosition{
			"pos1": {PairAddress: "pair1", TotalFeeUsdClaimed: &claimed},
		},
		deposits: map[string][]gateway.LedgerEvent{
			"pos1": {{TokenXUsdAmount: 100}},
		},
		claimFees: map[string][]gateway.LedgerEvent{
			"pos1": {{TokenXUsdAmount: 1}},
		},
	}
	builder := NewBuilder(indexer, chain, zaptest.NewLogger(t))

	card, err := builder.Build(context.Background(), testSig, portfolio.DefaultRates())
	require.NoError(t, err)
	assert.InDelta(t, 42.0, card.ClaimedFeeUsd, 1e-9)
}

func TestBuildNoDLMMInstruction(t *testing.T) {
	chain := &fakeChain{
		instructions: map[string][]gateway.TxInstruction{
			testSig: {{ProgramID: "SomethingElse", Accounts: []string{"x"}}},
		},
	}
	builder := NewBuilder(&fakeIndexer{}, chain, zaptest.NewLogger(t))

	_, err := builder.Build(context.Background(), testSig, portfolio.DefaultRates())
	assert.ErrorIs(t, err, ErrNoPositionInTx)
}

func TestBuildUnknownPosition(t *testing.T) {
	chain := &fakeChain{
		instructions: map[string][]gateway.TxInstruction{
			testSig: {{ProgramID: dlmm.ProgramID, Accounts: []string{"pos1"}}},
		},
	}
	builder := NewBuilder(&fakeIndexer{}, chain, zaptest.NewLogger(t))

	_, err := builder.Build(context.Background(), testSig, portfolio.DefaultRates())
	assert.ErrorIs(t, err, ErrPositionUnknown)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", formatDuration(0))
	assert.Equal(t, "00:01:05", formatDuration(65e9))
	assert.Equal(t, "27:46:40", formatDuration(100_000e9))
	assert.Equal(t, "00:00:00", formatDuration(-5e9))
}

func TestBuildRejectsMalformedReference(t *testing.T) {
	builder := NewBuilder(&fakeIndexer{}, &fakeChain{}, zaptest.NewLogger(t))
	_, err := builder.Build(context.Background(), strings.Repeat("!", 10), portfolio.DefaultRates())
	assert.ErrorIs(t, err, ErrUnrecognizedLink)
}
