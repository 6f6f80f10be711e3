package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces adalah presisi penyimpanan semua nilai uang.
// Tampilan dibulatkan ke 2 digit.
const MoneyPlaces = 3

// Round3 membulatkan ke 3 desimal (batas penyimpanan).
func Round3(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(MoneyPlaces).InexactFloat64()
}

// RoundDecimal membulatkan decimal ke presisi penyimpanan.
func RoundDecimal(d decimal.Decimal) float64 {
	return d.Round(MoneyPlaces).InexactFloat64()
}

// FormatMoney memformat nilai untuk tampilan: 2 desimal, pemisah ribuan koma.
// Example: 15000.505 -> "USD 15,000.51"
func FormatMoney(currency string, amount float64) string {
	formatted := decimal.NewFromFloat(amount).StringFixed(2)

	negative := strings.HasPrefix(formatted, "-")
	formatted = strings.TrimPrefix(formatted, "-")

	parts := strings.SplitN(formatted, ".", 2)
	integerPart := parts[0]

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	out := strings.Join(groups, ",") + "." + parts[1]
	if negative {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return fmt.Sprintf("%s %s", currency, out)
}
