// =================================
// File: internal/gateway/rates.go
// =================================
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alansory/metina/internal/dlmm"
)

// DefaultSolPrice is the SOL/USD rate assumed when every price source
// is unreachable.
const DefaultSolPrice = 150.0

// DefaultIDRRate is the USD/IDR rate assumed when the FX API is down.
const DefaultIDRRate = 16_700.0

// RatesClient fetches the fiat and SOL exchange rates the formatter
// uses. Every fetch degrades to a hardcoded default instead of failing.
type RatesClient struct {
	ratesURL     string
	coingeckoURL string
	binanceURL   string
	jupiter      *JupiterClient
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewRatesClient(ratesURL string, jupiter *JupiterClient, logger *zap.Logger) *RatesClient {
	return &RatesClient{
		ratesURL:     ratesURL,
		coingeckoURL: "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd",
		binanceURL:   "https://api.binance.com/api/v3/ticker/price?symbol=SOLUSDT",
		jupiter:      jupiter,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("rates"),
	}
}

func (c *RatesClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
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

// FetchIDRRate returns the USD/IDR rate, or DefaultIDRRate on failure.
func (c *RatesClient) FetchIDRRate(ctx context.Context) float64 {
	var out struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.ratesURL, &out); err != nil {
		c.logger.Warn("fx rates unavailable, using default", zap.Error(err))
		return DefaultIDRRate
	}
	rate, ok := out.Rates["IDR"]
	if !ok || rate <= 0 {
		c.logger.Warn("fx response missing IDR, using default")
		return DefaultIDRRate
	}
	return rate
}

// FetchSolPrice returns the SOL/USD price. Sources are tried in order:
// CoinGecko, Binance, a Jupiter quote of 1 SOL into USDC, then the
// hardcoded default.
func (c *RatesClient) FetchSolPrice(ctx context.Context) float64 {
	if price := c.solPriceCoingecko(ctx); price > 0 {
		return price
	}
	if price := c.solPriceBinance(ctx); price > 0 {
		return price
	}
	if price := c.solPriceJupiter(ctx); price > 0 {
		return price
	}
	c.logger.Warn("all SOL price sources failed, using default",
		zap.Float64("default", DefaultSolPrice))
	return DefaultSolPrice
}

func (c *RatesClient) solPriceCoingecko(ctx context.Context) float64 {
	var out struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := c.getJSON(ctx, c.coingeckoURL, &out); err != nil {
		c.logger.Debug("coingecko price unavailable", zap.Error(err))
		return 0
	}
	return out.Solana.USD
}

func (c *RatesClient) solPriceBinance(ctx context.Context) float64 {
	var out struct {
		Price string `json:"price"`
	}
	if err := c.getJSON(ctx, c.binanceURL, &out); err != nil {
		c.logger.Debug("binance price unavailable", zap.Error(err))
		return 0
	}
	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil {
		return 0
	}
	return price
}

// usdcMint is the mainnet USDC mint used for the Jupiter price probe.
const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func (c *RatesClient) solPriceJupiter(ctx context.Context) float64 {
	if c.jupiter == nil {
		return 0
	}
	// 1 SOL quoted into USDC (6 decimals).
	out := c.jupiter.Quote(ctx, dlmm.WrappedSOLMint, usdcMint, dlmm.LamportsPerSOL)
	return float64(out) / 1e6
}
