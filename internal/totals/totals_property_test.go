package totals_test

import (
	"testing"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/totals"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func cartOf(price int64, quantity int) []domain.CartLineItem {
	product := domain.Product{
		ID:     "p1",
		Prices: []domain.SizePrice{{Size: "50", Price: domain.NewAmount(decimal.NewFromInt(price))}},
	}
	return []domain.CartLineItem{domain.NewCartLineItem(product, quantity, "50", domain.QualityOriginal)}
}

func TestTotalsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("final total is never negative", prop.ForAll(
		func(price int64, quantity int, value int64, isFixed bool) bool {
			d := &domain.AppliedDiscount{DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(value)}
			if isFixed {
				d.DiscountType = domain.DiscountFixed
			}
			got := totals.Compute(cartOf(price, quantity), d)
			return !got.Total.IsNegative()
		},
		gen.Int64Range(0, 100000),
		gen.IntRange(1, 50),
		gen.Int64Range(-1000, 1000000),
		gen.Bool(),
	))

	properties.Property("capped percentage stays within cap and subtotal", prop.ForAll(
		func(price int64, quantity int, pct int64, limit int64) bool {
			ceiling := decimal.NewFromInt(limit)
			d := &domain.AppliedDiscount{
				DiscountType:      domain.DiscountPercentage,
				DiscountValue:     decimal.NewFromInt(pct),
				MaxDiscountAmount: &ceiling,
			}
			got := totals.Compute(cartOf(price, quantity), d)
			return got.DiscountAmount.LessThanOrEqual(ceiling) && got.DiscountAmount.LessThanOrEqual(got.Subtotal)
		},
		gen.Int64Range(0, 100000),
		gen.IntRange(1, 50),
		gen.Int64Range(0, 200),
		gen.Int64Range(0, 5000),
	))

	properties.Property("fixed discount equals min(value, subtotal)", prop.ForAll(
		func(price int64, quantity int, value int64) bool {
			d := &domain.AppliedDiscount{DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(value)}
			got := totals.Compute(cartOf(price, quantity), d)
			return got.DiscountAmount.Equal(decimal.Min(decimal.NewFromInt(value), got.Subtotal))
		},
		gen.Int64Range(0, 100000),
		gen.IntRange(1, 50),
		gen.Int64Range(0, 1000000),
	))

	properties.TestingRun(t)
}
