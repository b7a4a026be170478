// =================================
// File: internal/portfolio/rates.go
// =================================
package portfolio

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Rates is the exchange-rate set every conversion in a valuation pass
// reads from. USD is always 1.
type Rates struct {
	USD float64
	IDR float64
	SOL float64
}

// DefaultRates are substituted whenever upstream rate sources fail.
func DefaultRates() Rates {
	return Rates{USD: 1, IDR: 16_700, SOL: 150}
}

// RateSource fetches live rates. The gateway rates client satisfies it.
type RateSource interface {
	FetchIDRRate(ctx context.Context) float64
	FetchSolPrice(ctx context.Context) float64
}

// RatesProvider holds the session-wide exchange rates. A single owner
// calls Refresh; all valuation tasks read concurrently via Current.
type RatesProvider struct {
	mu     sync.RWMutex
	rates  Rates
	source RateSource
	logger *zap.Logger
}

func NewRatesProvider(source RateSource, logger *zap.Logger) *RatesProvider {
	return &RatesProvider{
		rates:  DefaultRates(),
		source: source,
		logger: logger.Named("rates_provider"),
	}
}

// Current returns the latest rate set. Safe for concurrent readers.
func (p *RatesProvider) Current() Rates {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rates
}

// Refresh pulls fresh rates from the source. Failed fetches keep the
// previous values rather than zeroing them.
func (p *RatesProvider) Refresh(ctx context.Context) Rates {
	if p.source == nil {
		return p.Current()
	}

	idr := p.source.FetchIDRRate(ctx)
	sol := p.source.FetchSolPrice(ctx)

	p.mu.Lock()
	if idr > 0 {
		p.rates.IDR = idr
	}
	if sol > 0 {
		p.rates.SOL = sol
	}
	updated := p.rates
	p.mu.Unlock()

	p.logger.Debug("exchange rates refreshed",
		zap.Float64("idr", updated.IDR),
		zap.Float64("sol", updated.SOL))
	return updated
}

// effectiveSolPrice is the SOL price used for USD to SOL conversion,
// never zero.
func effectiveSolPrice(rates Rates) float64 {
	if rates.SOL > 0 {
		return rates.SOL
	}
	return DefaultRates().SOL
}
