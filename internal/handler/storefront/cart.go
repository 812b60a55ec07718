package storefront

import (
	"net/http"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/handler"
	"github.com/dukerupert/esans/internal/telemetry"
)

// CartHandler handles the cart and discount code routes.
type CartHandler struct {
	sessions Sessions
	catalog  Catalog
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions Sessions, catalog Catalog) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: catalog}
}

type addItemRequest struct {
	ProductID string      `json:"productId"`
	Quantity  *int        `json:"quantity"`
	Size      domain.Size `json:"size"`
	Quality   string      `json:"quality"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// View handles GET /api/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}
	handler.WriteJSON(w, http.StatusOK, b.Cart.Snapshot())
}

// Add handles POST /api/cart/items. The product snapshot is taken from the
// catalog; a missing quantity means one.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.CartAdd"

	var req addItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		handler.ErrorResponse(w, r, domain.WithOp(domain.ErrInvalidQuantity, op))
		return
	}

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	product, err := lookupProduct(r.Context(), h.catalog, op, req.ProductID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := b.Cart.AddToCart(product, quantity, req.Size, req.Quality); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.CartItemsAdded.WithLabelValues(qualityLabel(req.Quality)).Inc()
	}
	handler.WriteJSON(w, http.StatusOK, b.Cart.Snapshot())
}

// Update handles PUT /api/cart/items/{lineID}. A quantity of zero or less
// removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	if err := b.Cart.UpdateCartItem(r.PathValue("lineID"), req.Quantity); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if telemetry.Business != nil {
		action := "update"
		if req.Quantity <= 0 {
			action = "remove"
		}
		telemetry.Business.CartUpdated.WithLabelValues(action).Inc()
	}
	handler.WriteJSON(w, http.StatusOK, b.Cart.Snapshot())
}

// Remove handles DELETE /api/cart/items/{lineID}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	b.Cart.RemoveFromCart(r.PathValue("lineID"))

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues("remove").Inc()
	}
	handler.WriteJSON(w, http.StatusOK, b.Cart.Snapshot())
}

// Clear handles DELETE /api/cart. The applied discount goes with the items.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	b.Cart.ClearCart()

	if telemetry.Business != nil {
		telemetry.Business.CartCleared.Inc()
	}
	handler.WriteJSON(w, http.StatusOK, b.Cart.Snapshot())
}

// qualityLabel keeps the metric label set bounded.
func qualityLabel(quality string) string {
	switch quality {
	case domain.QualityOriginal, domain.QualityPremium, domain.QualityLuxury:
		return quality
	case "":
		return "none"
	default:
		return "other"
	}
}
