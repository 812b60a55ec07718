// Package totals computes cart subtotal, discount amount and final total.
// Everything here is pure: no I/O, no shared state.
package totals

import (
	"strings"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/shopspring/decimal"
)

// places is the number of fractional digits kept on money values (kuruş).
const places = 2

var hundred = decimal.NewFromInt(100)

// Totals is the derived view of a cart.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`

	// Count is the sum of quantities, used for the cart badge.
	Count int `json:"count"`

	// LineCount is the number of distinct lines.
	LineCount int `json:"lineCount"`
}

// Compute derives the totals for items with an optional applied discount.
// The final total is never negative.
func Compute(items []domain.CartLineItem, discount *domain.AppliedDiscount) Totals {
	subtotal := Subtotal(items)
	amount := DiscountAmount(subtotal, discount)

	total := subtotal.Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: amount,
		Total:          total.Round(places),
		Count:          count,
		LineCount:      len(items),
	}
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(items []domain.CartLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		line := UnitPrice(item.Product, item.Size).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(places)
}

// UnitPrice resolves the price of product in the given size.
// A per-size table wins when present, even if it has no row for size (price 0).
// Without a table the discounted price is used if set, then the list price.
func UnitPrice(product domain.Product, size domain.Size) decimal.Decimal {
	if product.HasPriceTable() {
		want := strings.TrimSpace(string(size))
		for _, row := range product.Prices {
			if strings.TrimSpace(string(row.Size)) == want {
				return nonNegative(row.Price.Decimal())
			}
		}
		return decimal.Zero
	}

	if d := product.DiscountedPrice.Decimal(); d.IsPositive() {
		return d
	}
	return nonNegative(product.Price.Decimal())
}

// DiscountAmount returns how much discount applies to subtotal.
// Percentage discounts are capped by MaxDiscountAmount when set; fixed
// discounts never exceed the subtotal. The result is never negative.
func DiscountAmount(subtotal decimal.Decimal, discount *domain.AppliedDiscount) decimal.Decimal {
	if discount == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	value := money(discount.DiscountValue)

	var amount decimal.Decimal
	switch discount.DiscountType {
	case domain.DiscountPercentage:
		amount = subtotal.Mul(value).Div(hundred)
		if discount.MaxDiscountAmount != nil {
			limit := money(*discount.MaxDiscountAmount)
			if amount.GreaterThan(limit) {
				amount = limit
			}
		}
	case domain.DiscountFixed:
		amount = value
	default:
		return decimal.Zero
	}

	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(places)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// money clamps discount values restored from storage the same way catalog
// amounts are: negative or out-of-range values count as zero.
func money(d decimal.Decimal) decimal.Decimal {
	if !domain.InMoneyRange(d) {
		return decimal.Zero
	}
	return nonNegative(d)
}
