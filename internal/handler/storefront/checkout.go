package storefront

import (
	"net/http"

	"github.com/dukerupert/esans/internal/cart"
	"github.com/dukerupert/esans/internal/checkout"
	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/handler"
	"github.com/dukerupert/esans/internal/session"
	"github.com/dukerupert/esans/internal/telemetry"
)

// CheckoutHandler handles the checkout routes
type CheckoutHandler struct {
	sessions Sessions
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions Sessions) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions}
}

type paymentRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Notes         string               `json:"notes"`
}

type checkoutResponse struct {
	Checkout checkout.State `json:"checkout"`
	Cart     cart.Snapshot  `json:"cart"`
}

type orderResponse struct {
	OrderNumber string         `json:"orderNumber"`
	Checkout    checkout.State `json:"checkout"`
}

// View handles GET /api/checkout
func (h *CheckoutHandler) View(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}
	writeCheckout(w, b, b.Checkout())
}

// SetCustomer handles PUT /api/checkout/customer
func (h *CheckoutHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.Customer
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	flow := b.Checkout()
	if err := flow.SetCustomer(req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeCheckout(w, b, flow)
}

// SetPayment handles PUT /api/checkout/payment
func (h *CheckoutHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	flow := b.Checkout()
	if err := flow.SetPayment(req.PaymentMethod, req.Notes); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeCheckout(w, b, flow)
}

// Next handles POST /api/checkout/next. An invalid step answers 400 with
// the field errors and leaves the cursor where it was.
func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	flow := b.Checkout()
	if err := flow.NextStep(); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeCheckout(w, b, flow)
}

// Back handles POST /api/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	flow := b.Checkout()
	flow.PrevStep()
	writeCheckout(w, b, flow)
}

// PlaceOrder handles POST /api/checkout/order. On success the cart and its
// discount are cleared; on failure both are kept.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	flow := b.Checkout()
	placed, err := flow.PlaceOrder(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.CartCleared.Inc()
	}
	handler.WriteJSON(w, http.StatusCreated, orderResponse{
		OrderNumber: placed.OrderNumber,
		Checkout:    flow.State(),
	})
}

func writeCheckout(w http.ResponseWriter, b *session.Bundle, flow *checkout.Flow) {
	handler.WriteJSON(w, http.StatusOK, checkoutResponse{
		Checkout: flow.State(),
		Cart:     b.Cart.Snapshot(),
	})
}
