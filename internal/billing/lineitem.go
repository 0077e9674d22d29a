package billing

import "github.com/shopspring/decimal"

// LineItem is one row of an in-progress bill. Rate snapshots the product's
// billing rate at add time; later catalog price changes do not rewrite
// existing lines.
type LineItem struct {
	CustomerName string  `json:"customerName"`
	MobileNumber string  `json:"mobileNumber"`
	ProductIndex string  `json:"productIndex"`
	ProductName  string  `json:"productName"`
	Rate         float64 `json:"rate"`
	Quantity     int     `json:"quantity"`
	Total        float64 `json:"total"`
}

// Totals is the derived invoice arithmetic. It is never persisted.
type Totals struct {
	Grand decimal.Decimal
	Final decimal.Decimal
}

func lineTotal(rate float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(int64(quantity)))
}

// ClampDiscount forces a discount percentage into [0, 100]. Out-of-range
// form input is treated as the nearest bound instead of flowing into the
// arithmetic.
func ClampDiscount(percent float64) float64 {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	}

	return percent
}

// ComputeTotals sums rate times quantity over all lines and applies the
// discount percentage to produce the final total.
func ComputeTotals(lines []LineItem, discountPercent float64) Totals {
	grand := decimal.Zero
	for _, l := range lines {
		grand = grand.Add(lineTotal(l.Rate, l.Quantity))
	}

	discount := decimal.NewFromFloat(ClampDiscount(discountPercent))
	final := grand.Mul(decimal.NewFromInt(100).Sub(discount)).Div(decimal.NewFromInt(100))

	return Totals{Grand: grand, Final: final}
}
