// =================================
// File: internal/portfolio/fakes_test.go
// =================================
package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/alansory/metina/internal/dlmm"
	"github.com/alansory/metina/internal/gateway"
)

var errUnavailable = errors.New("unavailable")

// testKey builds a deterministic valid base58 public key.
func testKey(b byte) string {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32)).String()
}

type fakeIndexer struct {
	walletPositions map[string]json.RawMessage
	positions       map[string]*gateway.IndexedPosition
	deposits        map[string][]gateway.LedgerEvent
	withdraws       map[string][]gateway.LedgerEvent
	claimFees       map[string][]gateway.LedgerEvent
	claimRewards    map[string][]gateway.LedgerEvent
	pairs           map[string]*gateway.PairInfo
	earnings        map[string]*gateway.WalletEarning
}

func (f *fakeIndexer) WalletPositions(_ context.Context, _ string) map[string]json.RawMessage {
	return f.walletPositions
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

func (f *fakeIndexer) WalletEarning(_ context.Context, owner, pair string) *gateway.WalletEarning {
	return f.earnings[owner+"/"+pair]
}

type fakeChain struct {
	byOwner    map[string]map[string]*dlmm.PositionAccount
	positions  map[string]*dlmm.PositionAccount
	pairs      map[string]*dlmm.PairAccount
	sigs       map[string][]string
	txAccounts map[string][]string
}

func (f *fakeChain) PositionsByOwner(_ context.Context, owner solana.PublicKey) (map[string]*dlmm.PositionAccount, error) {
	found, ok := f.byOwner[owner.String()]
	if !ok {
		return nil, errUnavailable
	}
	return found, nil
}

func (f *fakeChain) PositionAccount(_ context.Context, address solana.PublicKey) (*dlmm.PositionAccount, error) {
	pos, ok := f.positions[address.String()]
	if !ok {
		return nil, errUnavailable
	}
	return pos, nil
}

func (f *fakeChain) PairAccount(_ context.Context, address solana.PublicKey) (*dlmm.PairAccount, error) {
	pair, ok := f.pairs[address.String()]
	if !ok {
		return nil, errUnavailable
	}
	return pair, nil
}

func (f *fakeChain) Signatures(_ context.Context, address solana.PublicKey, limit int) ([]string, error) {
	sigs, ok := f.sigs[address.String()]
	if !ok {
		return nil, errUnavailable
	}
	if len(sigs) > limit {
		sigs = sigs[:limit]
	}
	return sigs, nil
}

func (f *fakeChain) TransactionAccounts(_ context.Context, signature string) ([]string, error) {
	accounts, ok := f.txAccounts[signature]
	if !ok {
		return nil, errUnavailable
	}
	return accounts, nil
}

type fakeQuoter struct {
	// solPerUnit is the SOL output per one unit of each mint.
	solPerUnit map[string]float64
}

func (f *fakeQuoter) TokenToSol(_ context.Context, mint string, amount float64, _ int) float64 {
	return f.solPerUnit[mint] * amount
}
