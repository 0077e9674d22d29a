package view

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const apiTimeout = 10 * time.Second

// FormatMoney renders a rate or total with two decimal places.
func FormatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatDecimal renders an exact total with two decimal places.
func FormatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ApiCtx returns a context with the standard timeout for catalog calls.
func ApiCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), apiTimeout)
}
