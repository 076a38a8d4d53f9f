package normalize

import "strings"

var countryCurrency = map[string]string{
	"US": "USD",
	"EA": "EUR",
	"EU": "EUR",
	"GB": "GBP",
	"UK": "GBP",
	"JP": "JPY",
	"CA": "CAD",
	"AU": "AUD",
	"NZ": "NZD",
	"CH": "CHF",
	"CN": "CNY",
	"DE": "EUR",
	"FR": "EUR",
	"IT": "EUR",
	"ES": "EUR",
	"IN": "INR",
	"BR": "BRL",
	"MX": "MXN",
	"ZA": "ZAR",
	"RU": "RUB",
	"TR": "TRY",
	"SA": "SAR",
	"SG": "SGD",
	"ID": "IDR",
	"AR": "ARS",
	"KR": "KRW",
}

// CurrencyForCountry maps a 2-letter region code to its 3-letter currency code.
// Unknown codes, including codes that already are currencies, pass through unchanged.
func CurrencyForCountry(code string) string {
	code = strings.TrimSpace(code)
	if cur, ok := countryCurrency[strings.ToUpper(code)]; ok {
		return cur
	}
	return code
}
