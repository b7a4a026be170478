// =================================
// File: cmd/metina/main.go
// =================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/alansory/metina/internal/app"
	"github.com/alansory/metina/internal/config"
	"github.com/alansory/metina/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to the configuration file")
		wallet     = flag.String("wallet", "", "wallet address to track")
		currency   = flag.String("currency", "USD", "display currency: USD, IDR or SOL")
		watch      = flag.Bool("watch", false, "keep refreshing the portfolio on an interval")
		exportFmt  = flag.String("export", "", "export format: csv or json")
		txRef      = flag.String("tx", "", "transaction signature or explorer link to build a PNL card from")
		launchMint = flag.String("wait-launch", "", "token mint to wait for a pool launch of")
		recent     = flag.Bool("recent", false, "list recently tracked wallets and exit")
	)
	flag.Parse()

	if !app.ValidCurrency(*currency) {
		fmt.Fprintf(os.Stderr, "unsupported currency %q\n", *currency)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	runner := app.NewRunner(cfg, log)
	defer runner.Close()

	if *recent {
		for _, wallet := range runner.RecentWallets() {
			fmt.Println(wallet)
		}
		return
	}

	err = runner.Run(context.Background(), app.Options{
		Wallet:     *wallet,
		Currency:   *currency,
		Watch:      *watch,
		Export:     *exportFmt,
		TxRef:      *txRef,
		LaunchMint: *launchMint,
	})
	if err != nil {
		log.LogError("run failed", err)
		os.Exit(1)
	}
}
