// =================================
// File: internal/gateway/meteora.go
// =================================
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// MeteoraClient talks to the DLMM indexer API. Public methods never
// fail the caller: on any error they log and return an empty default,
// so a slow or broken indexer degrades the data instead of the app.
type MeteoraClient struct {
	baseURL    string
	dammURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMeteoraClient creates an indexer client for the given API bases.
func NewMeteoraClient(baseURL, dammURL string, logger *zap.Logger) *MeteoraClient {
	return &MeteoraClient{
		baseURL: baseURL,
		dammURL: dammURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		logger: logger.Named("meteora"),
	}
}

func (c *MeteoraClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// WalletPositions returns the indexer's per-pair position map for a
// wallet. Values are kept raw because the indexer has shipped three
// different shapes for them over time.
func (c *MeteoraClient) WalletPositions(ctx context.Context, owner string) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	u := fmt.Sprintf("%s/wallet/%s/positions", c.baseURL, url.PathEscape(owner))
	if err := c.getJSON(ctx, u, &out); err != nil {
		c.logger.Debug("wallet positions unavailable", zap.String("owner", owner), zap.Error(err))
		return nil
	}
	return out
}

// Position returns the indexed position record, or nil when the
// indexer does not know the address.
func (c *MeteoraClient) Position(ctx context.Context, address string) *IndexedPosition {
	var out IndexedPosition
	u := fmt.Sprintf("%s/position/%s", c.baseURL, url.PathEscape(address))
	if err := c.getJSON(ctx, u, &out); err != nil {
		c.logger.Debug("position unavailable", zap.String("address", address), zap.Error(err))
		return nil
	}
	return &out
}

// Deposits returns the position's deposit ledger, oldest first.
func (c *MeteoraClient) Deposits(ctx context.Context, address string) []LedgerEvent {
	return c.ledger(ctx, address, "deposits")
}

// Withdraws returns the position's withdrawal ledger.
func (c *MeteoraClient) Withdraws(ctx context.Context, address string) []LedgerEvent {
	return c.ledger(ctx, address, "withdraws")
}

// ClaimFees returns the position's fee-claim ledger.
func (c *MeteoraClient) ClaimFees(ctx context.Context, address string) []LedgerEvent {
	return c.ledger(ctx, address, "claim_fees")
}

// ClaimRewards returns the position's reward-claim ledger.
func (c *MeteoraClient) ClaimRewards(ctx context.Context, address string) []LedgerEvent {
	return c.ledger(ctx, address, "claim_rewards")
}

func (c *MeteoraClient) ledger(ctx context.Context, address, kind string) []LedgerEvent {
	var out []LedgerEvent
	u := fmt.Sprintf("%s/position/%s/%s", c.baseURL, url.PathEscape(address), kind)
	if err := c.getJSON(ctx, u, &out); err != nil {
		c.logger.Debug("ledger unavailable",
			zap.String("address", address),
			zap.String("kind", kind),
			zap.Error(err))
		return nil
	}
	return out
}

// Pair returns the indexed pool record, or nil when unknown.
func (c *MeteoraClient) Pair(ctx context.Context, address string) *PairInfo {
	var out PairInfo
	u := fmt.Sprintf("%s/pair/%s", c.baseURL, url.PathEscape(address))
	if err := c.getJSON(ctx, u, &out); err != nil {
		c.logger.Debug("pair unavailable", zap.String("address", address), zap.Error(err))
		return nil
	}
	out.Address = address
	return &out
}

// WalletEarning returns the wallet's lifetime earning summary for one
// pair. The endpoint answers with either a bare object or a one-element
// array depending on indexer version, so both are accepted.
func (c *MeteoraClient) WalletEarning(ctx context.Context, owner, pair string) *WalletEarning {
	u := fmt.Sprintf("%s/wallet/%s/%s/earning", c.baseURL, url.PathEscape(owner), url.PathEscape(pair))

	var raw json.RawMessage
	if err := c.getJSON(ctx, u, &raw); err != nil {
		c.logger.Debug("earning unavailable", zap.String("owner", owner), zap.Error(err))
		return nil
	}

	var list []WalletEarning
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil
		}
		return &list[0]
	}

	var single WalletEarning
	if err := json.Unmarshal(raw, &single); err != nil {
		c.logger.Debug("earning shape unrecognized", zap.String("owner", owner), zap.Error(err))
		return nil
	}
	return &single
}

// PoolsByMint lists DAMM v2 pools whose token A matches the mint.
func (c *MeteoraClient) PoolsByMint(ctx context.Context, mint string) []DammPool {
	var out dammPoolsResponse
	u := fmt.Sprintf("%s/pools?token_a_mint=%s", c.dammURL, url.QueryEscape(mint))
	if err := c.getJSON(ctx, u, &out); err != nil {
		c.logger.Debug("damm pools unavailable", zap.String("mint", mint), zap.Error(err))
		return nil
	}
	return out.Data
}
