// =================================
// File: internal/gateway/jupiter.go
// =================================
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alansory/metina/internal/dlmm"
)

const quoteSlippageBps = 500

// minQuoteAmount is the smallest token amount worth quoting; anything
// below it rounds to zero lamports anyway.
const minQuoteAmount = 1e-6

// JupiterClient fetches swap quotes used to price odd tokens in SOL.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewJupiterClient(baseURL string, logger *zap.Logger) *JupiterClient {
	return &JupiterClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("jupiter"),
	}
}

type quoteResponse struct {
	OutAmount string `json:"outAmount"`
}

// Quote asks for the output amount of swapping rawAmount base units of
// inputMint into outputMint. Returns 0 on any failure.
func (c *JupiterClient) Quote(ctx context.Context, inputMint, outputMint string, rawAmount uint64) uint64 {
	if rawAmount == 0 {
		return 0
	}

	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(rawAmount, 10))
	params.Set("slippageBps", strconv.Itoa(quoteSlippageBps))

	u := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("quote request failed", zap.String("input_mint", inputMint), zap.Error(err))
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("quote rejected",
			zap.String("input_mint", inputMint),
			zap.Int("status", resp.StatusCode))
		return 0
	}

	var out quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0
	}
	lamports, err := strconv.ParseUint(out.OutAmount, 10, 64)
	if err != nil {
		return 0
	}
	return lamports
}

// TokenToSol converts a UI token amount into SOL via a swap quote.
// Amounts too small to quote, SOL itself, and quote failures all
// yield 0.
func (c *JupiterClient) TokenToSol(ctx context.Context, mint string, amount float64, decimals int) float64 {
	if amount < minQuoteAmount {
		return 0
	}
	if dlmm.IsSOLMint(mint) {
		return amount
	}

	raw := uint64(amount * pow10(decimals))
	lamports := c.Quote(ctx, mint, dlmm.WrappedSOLMint, raw)
	return float64(lamports) / dlmm.LamportsPerSOL
}

func pow10(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
