package domain

import "slices"

// PaymentMethod is the buyer's chosen way to pay. No gateway is involved;
// the method is recorded on the order only.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentBankTransfer, PaymentOther}

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	return slices.Contains(PaymentMethods, m)
}

// Customer is the contact and shipping block of an order.
type Customer struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	District   string `json:"district,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// OrderLine is a cart line reduced to what the order API needs.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      Size   `json:"size"`
	Quality   string `json:"quality"`
}

// OrderDraft is the payload submitted to the order API.
type OrderDraft struct {
	Customer      Customer      `json:"customer"`
	Items         []OrderLine   `json:"items"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Notes         string        `json:"notes,omitempty"`
	DiscountCode  string        `json:"discountCode,omitempty"`
}

// PlacedOrder is the order API's confirmation.
type PlacedOrder struct {
	OrderNumber string `json:"orderNumber"`
}
