// Package pricing turns a set of order lines into a commission-inclusive
// total. All arithmetic is decimal so persisted amounts are exact to the
// cent regardless of how many lines a cart carries.
package pricing

import (
	"fmt"

	"github.com/example/marketplace/pkg/errs"
	"github.com/shopspring/decimal"
)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Quote struct {
	Subtotal   decimal.Decimal
	Commission decimal.Decimal
	Total      decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Calculate computes subtotal, commission and grand total for the given
// lines. commissionPercent is the marketplace cut in percent (5 means 5%).
// The commission is rounded to 2 decimal places before being added.
func Calculate(lines []Line, commissionPercent decimal.Decimal) (Quote, error) {
	if commissionPercent.IsNegative() {
		return Quote{}, errs.FieldErrors{"commission_percent": "must not be negative"}
	}

	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity <= 0 {
			return Quote{}, errs.FieldErrors{
				fmt.Sprintf("lines[%d].quantity", i): "must be a positive integer",
			}
		}
		if line.UnitPrice.IsNegative() {
			return Quote{}, errs.FieldErrors{
				fmt.Sprintf("lines[%d].price", i): "must not be negative",
			}
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	commission := subtotal.Mul(commissionPercent).Div(oneHundred).Round(2)

	return Quote{
		Subtotal:   subtotal,
		Commission: commission,
		Total:      subtotal.Add(commission),
	}, nil
}
