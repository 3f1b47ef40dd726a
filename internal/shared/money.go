package shared

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatAmount renders a display amount with its currency symbol, grouping
// digits the way the console tables show them (e.g. "NGN 5,000.00").
func FormatAmount(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return moneyPrinter.Sprintf("%s %.2f", code, amount)
	}
	return moneyPrinter.Sprintf("%v %.2f", currency.Symbol(unit), amount)
}
