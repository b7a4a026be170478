// =================================
// File: internal/portfolio/currency.go
// =================================
package portfolio

import (
	"fmt"
	"math"
	"strings"
)

// upnlPercent maps profit and capital at risk onto a percentage. The
// zero-net-deposit boundaries are pinned: positive value is +100%,
// negative is -100%, nothing is 0%.
func upnlPercent(upnlUsd, netDepositUsd, totalValueUsd float64) float64 {
	switch {
	case netDepositUsd > 0:
		return upnlUsd / netDepositUsd * 100
	case netDepositUsd < 0:
		return upnlUsd / math.Abs(netDepositUsd) * 100
	case totalValueUsd > 0:
		return 100
	case totalValueUsd < 0:
		return -100
	default:
		return 0
	}
}

// FormatCurrency renders a USD amount in the requested display
// currency: "USD", "IDR" or "SOL".
func FormatCurrency(amountUsd float64, currency string, rates Rates) string {
	switch strings.ToUpper(currency) {
	case "IDR":
		return formatIDR(amountUsd * idrRate(rates))
	case "SOL":
		return formatSOL(amountUsd / effectiveSolPrice(rates))
	default:
		return formatUSD(amountUsd)
	}
}

func idrRate(rates Rates) float64 {
	if rates.IDR > 0 {
		return rates.IDR
	}
	return DefaultRates().IDR
}

func formatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "$" + trimZeros(fmt.Sprintf("%.2f", amount))
}

func formatIDR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= 1e9:
		return sign + "Rp" + trimZeros(fmt.Sprintf("%.2f", amount/1e9)) + "M"
	case amount >= 1e6:
		return sign + "Rp" + trimZeros(fmt.Sprintf("%.2f", amount/1e6)) + "JT"
	case amount >= 1e3:
		return sign + "Rp" + trimZeros(fmt.Sprintf("%.2f", amount/1e3)) + "K"
	default:
		return sign + "Rp" + trimZeros(fmt.Sprintf("%.2f", amount))
	}
}

func formatSOL(amount float64) string {
	if amount != 0 && math.Abs(amount) < 0.001 {
		if amount < 0 {
			return "-<0.001 SOL"
		}
		return "<0.001 SOL"
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + trimZeros(fmt.Sprintf("%.3f", amount)) + " SOL"
}

// trimZeros drops trailing fractional zeros from a fixed-point string.
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
