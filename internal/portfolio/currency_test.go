// =================================
// File: internal/portfolio/currency_test.go
// =================================
package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpnlPercentPositiveNetDeposit(t *testing.T) {
	assert.InDelta(t, 50.0, upnlPercent(50, 100, 150), 1e-9)
	assert.InDelta(t, -10.0, upnlPercent(-90, 900, 810), 1e-9)
}

func TestUpnlPercentNegativeNetDeposit(t *testing.T) {
	// A withdraw-heavy position divides by the magnitude of the net.
	assert.InDelta(t, 25.0, upnlPercent(5, -20, -15), 1e-9)
	assert.InDelta(t, -25.0, upnlPercent(-5, -20, -25), 1e-9)
}

func TestUpnlPercentZeroNetDepositBoundaries(t *testing.T) {
	assert.InDelta(t, 100.0, upnlPercent(10, 0, 10), 1e-9)
	assert.InDelta(t, 0.0, upnlPercent(0, 0, 0), 1e-9)
	assert.InDelta(t, -100.0, upnlPercent(-10, 0, -10), 1e-9)
}

func TestUpnlSignConsistency(t *testing.T) {
	cases := []struct {
		upnl, net, value float64
	}{
		{50, 100, 150},
		{-90, 900, 810},
		{1, -5, -4},
		{-1, -5, -6},
		{0.001, 10_000, 10_000.001},
	}
	for _, c := range cases {
		percent := upnlPercent(c.upnl, c.net, c.value)
		assert.Equal(t, c.upnl < 0, percent < 0,
			"sign mismatch for upnl=%v net=%v", c.upnl, c.net)
	}
}

func TestFormatCurrencyUSD(t *testing.T) {
	rates := DefaultRates()
	assert.Equal(t, "$100", FormatCurrency(100, "USD", rates))
	assert.Equal(t, "$1.5", FormatCurrency(1.50, "USD", rates))
	assert.Equal(t, "$0.01", FormatCurrency(0.01, "USD", rates))
	assert.Equal(t, "-$2.25", FormatCurrency(-2.25, "USD", rates))
}

func TestFormatCurrencyIDR(t *testing.T) {
	rates := Rates{USD: 1, IDR: 16_000, SOL: 150}
	assert.Equal(t, "Rp16K", FormatCurrency(1, "IDR", rates))
	assert.Equal(t, "Rp1.6JT", FormatCurrency(100, "IDR", rates))
	assert.Equal(t, "Rp1.6M", FormatCurrency(100_000, "IDR", rates))
	assert.Equal(t, "Rp800", FormatCurrency(0.05, "IDR", rates))
}

func TestFormatCurrencySOL(t *testing.T) {
	rates := Rates{USD: 1, IDR: 16_700, SOL: 150}
	assert.Equal(t, "1 SOL", FormatCurrency(150, "SOL", rates))
	assert.Equal(t, "0.5 SOL", FormatCurrency(75, "SOL", rates))
	assert.Equal(t, "<0.001 SOL", FormatCurrency(0.05, "SOL", rates))
	assert.Equal(t, "-0.5 SOL", FormatCurrency(-75, "SOL", rates))
}

// The SOL rendering and upnl.SOL must agree on the same division.
func TestFormatCurrencySOLMatchesUpnlConversion(t *testing.T) {
	rates := Rates{USD: 1, IDR: 16_700, SOL: 150}
	upnlSol := 100.0 / effectiveSolPrice(rates)
	assert.InDelta(t, 100.0/150.0, upnlSol, 1e-9)
	assert.Equal(t, "0.667 SOL", FormatCurrency(100, "SOL", rates))
}

func TestFormatCurrencyZeroRatesFallBack(t *testing.T) {
	rates := Rates{}
	assert.Equal(t, "1 SOL", FormatCurrency(150, "SOL", rates))
	assert.Equal(t, "Rp16.7K", FormatCurrency(1, "IDR", rates))
}
