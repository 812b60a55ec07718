package domain

import "github.com/shopspring/decimal"

// DiscountType selects how DiscountValue is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// AppliedDiscount is a discount code the remote API accepted for the current cart.
type AppliedDiscount struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`

	// MaxDiscountAmount caps percentage discounts. Ignored for fixed discounts.
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
}

// DiscountRequest asks the remote API whether Code applies to the current cart.
type DiscountRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	ProductIDs  []string        `json:"productIds"`
}
