// =================================
// File: internal/portfolio/locator.go
// =================================
package portfolio

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Locator discovers the position addresses owned by a wallet. Three
// strategies run in priority order and the first non-empty result
// wins; the cheap paths are expected to fail in some environments, so
// none of them is treated as an error.
type Locator struct {
	indexer        Indexer
	chain          ChainReader
	signatureLimit int
	candidateLimit int
	logger         *zap.Logger
}

func NewLocator(indexer Indexer, chain ChainReader, signatureLimit, candidateLimit int, logger *zap.Logger) *Locator {
	return &Locator{
		indexer:        indexer,
		chain:          chain,
		signatureLimit: signatureLimit,
		candidateLimit: candidateLimit,
		logger:         logger.Named("locator"),
	}
}

// Locate returns the wallet's position addresses, de-duplicated.
// Never fails; an empty slice means nothing was found anywhere.
func (l *Locator) Locate(ctx context.Context, owner string) []string {
	if ids := l.fromIndexerEnumeration(ctx, owner); len(ids) > 0 {
		return ids
	}
	if ids := l.fromAccountScan(ctx, owner); len(ids) > 0 {
		return ids
	}
	return l.fromTransactionHistory(ctx, owner)
}

// positionRef is the minimal shape every enumeration variant carries.
type positionRef struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

func (r positionRef) id() string {
	if r.Address != "" {
		return r.Address
	}
	return r.PublicKey
}

// extractIdentifiers normalizes one pair's enumeration value. The
// indexer has shipped a bare array, a wrapped object and a single
// object for the same endpoint, so each shape is tried in a fixed
// order and an unrecognized payload counts as no data.
func extractIdentifiers(raw json.RawMessage) []string {
	var list []positionRef
	if err := json.Unmarshal(raw, &list); err == nil {
		return refIDs(list)
	}

	var wrapped struct {
		Positions           []positionRef `json:"positions"`
		LbPairPositionsData []positionRef `json:"lb_pair_positions_data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if ids := refIDs(wrapped.Positions); len(ids) > 0 {
			return ids
		}
		if ids := refIDs(wrapped.LbPairPositionsData); len(ids) > 0 {
			return ids
		}
	}

	var single positionRef
	if err := json.Unmarshal(raw, &single); err == nil && single.id() != "" {
		return []string{single.id()}
	}
	return nil
}

func refIDs(refs []positionRef) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if id := ref.id(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (l *Locator) fromIndexerEnumeration(ctx context.Context, owner string) []string {
	byPair := l.indexer.WalletPositions(ctx, owner)
	if len(byPair) == 0 {
		return nil
	}

	// Map order is random; iterate pairs sorted so repeated runs list
	// the same wallet in the same order.
	pairs := lo.Keys(byPair)
	sort.Strings(pairs)

	var ids []string
	for _, pair := range pairs {
		found := extractIdentifiers(byPair[pair])
		if len(found) == 0 {
			l.logger.Debug("unrecognized enumeration shape", zap.String("pair", pair))
			continue
		}
		ids = append(ids, found...)
	}
	return lo.Uniq(ids)
}

func (l *Locator) fromAccountScan(ctx context.Context, owner string) []string {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		l.logger.Debug("owner is not a valid public key", zap.String("owner", owner))
		return nil
	}

	positions, err := l.chain.PositionsByOwner(ctx, ownerKey)
	if err != nil {
		l.logger.Debug("account scan unavailable", zap.Error(err))
		return nil
	}
	ids := lo.Keys(positions)
	sort.Strings(ids)
	return ids
}

func (l *Locator) fromTransactionHistory(ctx context.Context, owner string) []string {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil
	}

	sigs, err := l.chain.Signatures(ctx, ownerKey, l.signatureLimit)
	if err != nil {
		l.logger.Debug("signature history unavailable", zap.Error(err))
		return nil
	}

	seen := map[string]struct{}{owner: {}}
	var candidates []string
	for _, sig := range sigs {
		if len(candidates) >= l.candidateLimit {
			break
		}
		accounts, err := l.chain.TransactionAccounts(ctx, sig)
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if len(candidates) >= l.candidateLimit {
				break
			}
			if _, ok := seen[account]; ok {
				continue
			}
			seen[account] = struct{}{}
			candidates = append(candidates, account)
		}
	}

	var ids []string
	for _, candidate := range candidates {
		pos := l.indexer.Position(ctx, candidate)
		if pos == nil {
			continue
		}
		if !strings.EqualFold(pos.Owner, owner) {
			continue
		}
		ids = append(ids, candidate)
	}
	return lo.Uniq(ids)
}
