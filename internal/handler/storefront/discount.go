package storefront

import (
	"errors"
	"net/http"

	"github.com/dukerupert/esans/internal/cart"
	"github.com/dukerupert/esans/internal/discount"
	"github.com/dukerupert/esans/internal/handler"
	"github.com/dukerupert/esans/internal/telemetry"
)

type applyDiscountRequest struct {
	Code string `json:"code"`
}

type discountResponse struct {
	Cart     cart.Snapshot  `json:"cart"`
	Discount discount.State `json:"discount"`
}

// ApplyDiscount handles POST /api/cart/discount. The code is validated
// against the current subtotal and products. A rejected code keeps the
// previously applied discount.
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req applyDiscountRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	snap := b.Cart.Snapshot()
	err := b.Discount.Validate(r.Context(), req.Code, snap.Totals.Subtotal, snap.ProductIDs())

	if telemetry.Business != nil {
		result := "applied"
		switch {
		case errors.Is(err, discount.ErrValidationInFlight):
			result = "busy"
		case err != nil:
			result = "rejected"
		}
		telemetry.Business.DiscountValidations.WithLabelValues(result).Inc()
	}

	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, discountResponse{
		Cart:     b.Cart.Snapshot(),
		Discount: b.Discount.State(),
	})
}

// RemoveDiscount handles DELETE /api/cart/discount
func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	b.Discount.Remove()

	if telemetry.Business != nil {
		telemetry.Business.DiscountRemoved.Inc()
	}
	handler.WriteJSON(w, http.StatusOK, discountResponse{
		Cart:     b.Cart.Snapshot(),
		Discount: b.Discount.State(),
	})
}
