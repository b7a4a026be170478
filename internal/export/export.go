// =================================
// File: internal/export/export.go
// =================================

// Package export writes portfolio snapshots to disk for spreadsheets
// and archival.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alansory/metina/internal/portfolio"
)

// Format is the export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures one export run.
type Options struct {
	Format         Format
	PairFilter     string // keep only positions of this pair address
	OnlyProfitable bool   // keep only positions with positive UPNL
	OutputDir      string
}

// SnapshotExporter writes valuation results to files.
type SnapshotExporter struct {
	logger *zap.Logger
}

func NewSnapshotExporter(logger *zap.Logger) *SnapshotExporter {
	return &SnapshotExporter{
		logger: logger.Named("export"),
	}
}

// Export writes the snapshot set in the requested format and returns
// the output path.
func (se *SnapshotExporter) Export(snapshots []*portfolio.PositionSnapshot, rates portfolio.Rates, options Options) (string, error) {
	filtered := se.filter(snapshots, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no positions match the export criteria")
	}

	// Biggest positions first for readable output.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].TvlUsd > filtered[j].TvlUsd
	})

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, se.filename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = se.writeCSV(filtered, outputPath)
	case FormatJSON:
		err = se.writeJSON(filtered, rates, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	se.logger.Info("portfolio exported",
		zap.String("file", outputPath),
		zap.Int("positions", len(filtered)),
		zap.String("format", string(options.Format)))
	return outputPath, nil
}

func (se *SnapshotExporter) filter(snapshots []*portfolio.PositionSnapshot, options Options) []*portfolio.PositionSnapshot {
	var filtered []*portfolio.PositionSnapshot
	for _, snap := range snapshots {
		if options.PairFilter != "" && snap.PairAddress != options.PairFilter {
			continue
		}
		if options.OnlyProfitable && snap.Upnl.USD <= 0 {
			continue
		}
		filtered = append(filtered, snap)
	}
	return filtered
}

func (se *SnapshotExporter) filename(options Options) string {
	timestamp := time.Now().Format("20060102_150405")
	prefix := "portfolio"
	if options.OnlyProfitable {
		prefix = "portfolio_profitable"
	}
	if options.PairFilter != "" && len(options.PairFilter) >= 8 {
		prefix += "_" + options.PairFilter[:8]
	}
	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func csvHeaders() []string {
	return []string{
		"address", "pair_address", "pair_name",
		"total_deposit_usd", "total_withdraw_usd", "net_deposit_usd",
		"tvl_usd", "claimed_fee_usd", "unclaimed_fee_usd",
		"upnl_usd", "upnl_sol", "upnl_percent",
	}
}

func csvRow(snap *portfolio.PositionSnapshot) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		snap.Address, snap.PairAddress, snap.PairName,
		f(snap.TotalDepositUsd), f(snap.TotalWithdrawUsd), f(snap.NetDepositUsd),
		f(snap.TvlUsd), f(snap.ClaimedFeeUsd), f(snap.UnclaimedFeeUsd),
		f(snap.Upnl.USD), f(snap.Upnl.SOL), f(snap.Upnl.Percent),
	}
}

func (se *SnapshotExporter) writeCSV(snapshots []*portfolio.PositionSnapshot, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, snap := range snapshots {
		if err := writer.Write(csvRow(snap)); err != nil {
			return fmt.Errorf("failed to write position: %w", err)
		}
	}
	return nil
}

func (se *SnapshotExporter) writeJSON(snapshots []*portfolio.PositionSnapshot, rates portfolio.Rates, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	exportData := struct {
		ExportTime    time.Time                     `json:"export_time"`
		PositionCount int                           `json:"position_count"`
		Totals        portfolio.Totals              `json:"totals"`
		Positions     []*portfolio.PositionSnapshot `json:"positions"`
	}{
		ExportTime:    time.Now(),
		PositionCount: len(snapshots),
		Totals:        portfolio.ComputeTotals(snapshots, rates),
		Positions:     snapshots,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
