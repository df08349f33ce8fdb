package exporter

import (
	"github.com/shopspring/decimal"

	"campcli/internal/normalize"
)

// formatDecimal renders report numbers with two decimal places
func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatDate renders report dates as DD.MM.YYYY
var formatDate = normalize.FormatDate
