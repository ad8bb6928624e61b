package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies whose minor unit equals the major unit, so amounts carry no
// decimal places on the wire.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// FormatAmount renders a minor-unit amount string as a display amount with
// its currency code, honoring zero-decimal currencies. Inputs that do not
// parse are passed through untouched so a malformed payload never hides the
// raw value.
func FormatAmount(minor, currency string) string {
	minor = strings.TrimSpace(minor)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if minor == "" {
		return ""
	}

	amount, err := decimal.NewFromString(minor)
	if err != nil {
		if currency == "" {
			return minor
		}
		return minor + " " + currency
	}

	scale := currencyScale(currency)
	formatted := amount.Shift(-scale).StringFixed(scale)
	if currency == "" {
		return formatted
	}

	return formatted + " " + currency
}

// currencyScale returns the number of minor-unit decimal places for a
// currency code.
func currencyScale(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return 0
	}
	return 2
}
