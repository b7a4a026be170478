// =================================
// File: internal/app/runner.go
// =================================

// Package app wires the gateways, valuation core and exporters into
// the command-line workflows.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alansory/metina/internal/config"
	"github.com/alansory/metina/internal/export"
	"github.com/alansory/metina/internal/gateway"
	"github.com/alansory/metina/internal/launch"
	"github.com/alansory/metina/internal/logger"
	"github.com/alansory/metina/internal/pnlcard"
	"github.com/alansory/metina/internal/portfolio"
)

// Options selects what a single invocation does.
type Options struct {
	Wallet     string
	Currency   string // USD, IDR or SOL
	Watch      bool
	Export     string // "", "csv" or "json"
	TxRef      string // build a PNL card instead of a portfolio
	LaunchMint string // wait for this mint's pool instead
}

type Runner struct {
	cfg    *config.Config
	log    *logger.Logger
	zap    *zap.Logger
	rates  *portfolio.RatesProvider
	agg    *portfolio.Aggregator
	card   *pnlcard.Builder
	launch *launch.Monitor
	export *export.SnapshotExporter
	hist   *export.SearchHistory

	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	zlog := log.WithComponent("app")

	meteora := gateway.NewMeteoraClient(cfg.MeteoraAPIBase, cfg.DammAPIBase, log.Logger)
	jupiter := gateway.NewJupiterClient(cfg.JupiterAPIBase, log.Logger)
	ratesClient := gateway.NewRatesClient(cfg.RatesAPIURL, jupiter, log.Logger)
	chain := gateway.NewChainClient(cfg.RPCURL, log.Logger)

	locator := portfolio.NewLocator(meteora, chain, cfg.SignatureLimit, cfg.CandidateLimit, log.Logger)
	engine := portfolio.NewEngine(meteora, chain, jupiter, cfg.DustThresholdUsd, log.Logger)
	aggregator := portfolio.NewAggregator(locator, engine,
		time.Duration(cfg.StaggerDelay)*time.Millisecond, log.Logger)

	return &Runner{
		cfg:   cfg,
		log:   log,
		zap:   zlog,
		rates: portfolio.NewRatesProvider(ratesClient, log.Logger),
		agg:   aggregator,
		card:  pnlcard.NewBuilder(meteora, chain, log.Logger),
		launch: launch.NewMonitor(meteora,
			time.Duration(cfg.LaunchInterval)*time.Millisecond,
			time.Duration(cfg.LaunchTimeout)*time.Second,
			log.Logger),
		export:     export.NewSnapshotExporter(log.Logger),
		hist:       export.NewSearchHistory(cfg.HistoryFile, log.Logger),
		shutdownCh: make(chan os.Signal, 1),
	}
}

// Run dispatches to the selected workflow and blocks until it is done
// or a shutdown signal arrives.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-r.shutdownCh
		r.zap.Info("signal received, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	switch {
	case opts.TxRef != "":
		return r.runCard(ctx, opts)
	case opts.LaunchMint != "":
		return r.runLaunchWait(ctx, opts.LaunchMint)
	case opts.Wallet != "":
		return r.runPortfolio(ctx, opts)
	default:
		return errors.New("nothing to do: pass a wallet, a transaction or a mint")
	}
}

func (r *Runner) runPortfolio(ctx context.Context, opts Options) error {
	wlog := r.log.WithWallet(opts.Wallet)
	if err := r.hist.Remember(opts.Wallet); err != nil {
		wlog.Debug("could not persist search history", zap.Error(err))
	}

	rates := r.rates.Refresh(ctx)
	if err := r.refreshOnce(ctx, opts, rates); err != nil && !opts.Watch {
		return err
	}
	if !opts.Watch {
		return nil
	}

	ticker := time.NewTicker(time.Duration(r.cfg.RefreshDelay) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rates := r.rates.Refresh(ctx)
			if err := r.refreshOnce(ctx, opts, rates); err != nil {
				// Keep the last good view on transient failures.
				wlog.Warn("refresh failed, keeping previous snapshot set", zap.Error(err))
			}
		}
	}
}

func (r *Runner) refreshOnce(ctx context.Context, opts Options, rates portfolio.Rates) error {
	done := r.log.TrackPerformance("portfolio_refresh")
	defer done()

	snapshots, err := r.agg.Aggregate(ctx, opts.Wallet, rates)
	if errors.Is(err, portfolio.ErrNoPositions) {
		fmt.Println("No active positions found for this wallet.")
		return nil
	}
	if err != nil {
		return err
	}

	r.printPortfolio(snapshots, rates, opts.Currency)

	if opts.Export != "" {
		path, err := r.export.Export(snapshots, rates, export.Options{
			Format:    export.Format(opts.Export),
			OutputDir: r.cfg.ExportDir,
		})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported to %s\n", path)
	}
	return nil
}

func (r *Runner) printPortfolio(snapshots []*portfolio.PositionSnapshot, rates portfolio.Rates, currency string) {
	fmt.Printf("%-14s %-12s %12s %12s %12s %10s\n",
		"PAIR", "POSITION", "TVL", "FEES", "UPNL", "UPNL%")
	for _, snap := range snapshots {
		fees := snap.ClaimedFeeUsd + snap.UnclaimedFeeUsd
		fmt.Printf("%-14s %-12s %12s %12s %12s %9.2f%%\n",
			displayName(snap),
			shorten(snap.Address),
			portfolio.FormatCurrency(snap.TvlUsd, currency, rates),
			portfolio.FormatCurrency(fees, currency, rates),
			portfolio.FormatCurrency(snap.Upnl.USD, currency, rates),
			snap.Upnl.Percent)
	}

	totals := portfolio.ComputeTotals(snapshots, rates)
	fmt.Printf("\nTotal TVL:       %s\n", portfolio.FormatCurrency(totals.TvlUsd, currency, rates))
	fmt.Printf("Fees (claimed):  %s\n", portfolio.FormatCurrency(totals.ClaimedFeeUsd, currency, rates))
	fmt.Printf("Fees (pending):  %s\n", portfolio.FormatCurrency(totals.UnclaimedFeeUsd, currency, rates))
	fmt.Printf("UPNL:            %s (%.2f%%)\n",
		portfolio.FormatCurrency(totals.UpnlUsd, currency, rates), totals.UpnlPercent)
}

func (r *Runner) runCard(ctx context.Context, opts Options) error {
	rates := r.rates.Refresh(ctx)
	card, err := r.card.Build(ctx, opts.TxRef, rates)
	if err != nil {
		return err
	}
	r.log.WithPosition(card.PositionAddress).Debug("pnl card assembled",
		zap.Float64("pnl_usd", card.PnlUsd))

	currency := opts.Currency
	fmt.Printf("Position:   %s\n", card.PositionAddress)
	if card.PairName != "" {
		fmt.Printf("Pair:       %s\n", card.PairName)
	}
	fmt.Printf("Deposited:  %s\n", portfolio.FormatCurrency(card.TotalDepositUsd, currency, rates))
	fmt.Printf("Withdrawn:  %s\n", portfolio.FormatCurrency(card.TotalWithdrawUsd, currency, rates))
	fmt.Printf("Fees:       %s\n", portfolio.FormatCurrency(card.ClaimedFeeUsd+card.RewardUsd, currency, rates))
	fmt.Printf("PNL:        %s (%.2f%%)\n",
		portfolio.FormatCurrency(card.PnlUsd, currency, rates), card.PnlPercent)
	fmt.Printf("Duration:   %s\n", card.Duration)
	return nil
}

func (r *Runner) runLaunchWait(ctx context.Context, mint string) error {
	pool, err := r.launch.WaitForPool(ctx, mint)
	if err != nil {
		return err
	}
	fmt.Printf("Pool live: %s (%s)\n", pool.Address, pool.Name)
	return nil
}

// RecentWallets exposes the search history for prompt suggestions.
func (r *Runner) RecentWallets() []string {
	return r.hist.Recent()
}

// Close flushes buffered log output.
func (r *Runner) Close() {
	if err := r.log.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "log sync: %v\n", err)
	}
}

func displayName(snap *portfolio.PositionSnapshot) string {
	if snap.PairName != "" {
		return snap.PairName
	}
	if snap.TokenXSymbol != "" && snap.TokenYSymbol != "" {
		return snap.TokenXSymbol + "-" + snap.TokenYSymbol
	}
	return shorten(snap.PairAddress)
}

func shorten(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:4] + ".." + address[len(address)-4:]
}

// ValidCurrency reports whether the display-currency flag is usable.
func ValidCurrency(currency string) bool {
	switch strings.ToUpper(currency) {
	case "USD", "IDR", "SOL":
		return true
	default:
		return false
	}
}
