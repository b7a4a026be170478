// =================================
// File: internal/gateway/rates_test.go
// =================================
package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestFetchIDRRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"IDR":15800.5,"EUR":0.92}}`))
	}))
	defer server.Close()

	client := NewRatesClient(server.URL, nil, zaptest.NewLogger(t))
	assert.InDelta(t, 15800.5, client.FetchIDRRate(context.Background()), 1e-9)
}

func TestFetchIDRRateDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewRatesClient(server.URL, nil, zaptest.NewLogger(t))
	assert.InDelta(t, DefaultIDRRate, client.FetchIDRRate(context.Background()), 1e-9)
}

func TestFetchIDRRateMissingCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	client := NewRatesClient(server.URL, nil, zaptest.NewLogger(t))
	assert.InDelta(t, DefaultIDRRate, client.FetchIDRRate(context.Background()), 1e-9)
}

func TestFetchSolPriceFirstSource(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"solana":{"usd":187.3}}`))
	}))
	defer gecko.Close()

	client := NewRatesClient("http://unused.invalid", nil, zaptest.NewLogger(t))
	client.coingeckoURL = gecko.URL

	assert.InDelta(t, 187.3, client.FetchSolPrice(context.Background()), 1e-9)
}

func TestFetchSolPriceFallsBackToBinance(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()
	binance := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"SOLUSDT","price":"191.42"}`))
	}))
	defer binance.Close()

	client := NewRatesClient("http://unused.invalid", nil, zaptest.NewLogger(t))
	client.coingeckoURL = broken.URL
	client.binanceURL = binance.URL

	assert.InDelta(t, 191.42, client.FetchSolPrice(context.Background()), 1e-9)
}

func TestFetchSolPriceAllSourcesDown(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	client := NewRatesClient("http://unused.invalid", nil, zaptest.NewLogger(t))
	client.coingeckoURL = broken.URL
	client.binanceURL = broken.URL

	assert.InDelta(t, DefaultSolPrice, client.FetchSolPrice(context.Background()), 1e-9)
}
