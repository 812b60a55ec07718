package storefront

import (
	"net/http"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/favorites"
	"github.com/dukerupert/esans/internal/handler"
	"github.com/dukerupert/esans/internal/session"
	"github.com/dukerupert/esans/internal/telemetry"
)

// FavoritesHandler handles the favorites routes. Mutations need a signed-in
// shopper; the favorites store answers 401 for guests.
type FavoritesHandler struct {
	sessions Sessions
	catalog  Catalog
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(sessions Sessions, catalog Catalog) *FavoritesHandler {
	return &FavoritesHandler{sessions: sessions, catalog: catalog}
}

type addFavoriteRequest struct {
	ProductID string `json:"productId"`
}

type toggleResponse struct {
	IsFavorite bool            `json:"isFavorite"`
	Favorites  favorites.State `json:"favorites"`
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}
	handler.WriteJSON(w, http.StatusOK, b.Favorites.State())
}

// Add handles POST /api/favorites
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.FavoritesAdd"

	var req addFavoriteRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	product, err := h.favoriteProduct(r, b, op, req.ProductID)
	if err == nil {
		err = b.Favorites.Add(r.Context(), product)
	}
	recordFavorite("add", err)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, b.Favorites.State())
}

// Remove handles DELETE /api/favorites/{productID}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	err := b.Favorites.Remove(r.Context(), r.PathValue("productID"))
	recordFavorite("remove", err)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, b.Favorites.State())
}

// Toggle handles POST /api/favorites/{productID}/toggle. The membership the
// server reports wins over the local one.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.FavoritesToggle"

	b, ok := loadBundle(h.sessions, w, r)
	if !ok {
		return
	}

	var member bool
	product, err := h.favoriteProduct(r, b, op, r.PathValue("productID"))
	if err == nil {
		member, err = b.Favorites.Toggle(r.Context(), product)
	}
	recordFavorite("toggle", err)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, toggleResponse{
		IsFavorite: member,
		Favorites:  b.Favorites.State(),
	})
}

// favoriteProduct looks up the snapshot to store. Guests are turned away
// before the catalog is asked.
func (h *FavoritesHandler) favoriteProduct(r *http.Request, b *session.Bundle, op, id string) (domain.Product, error) {
	if b.Favorites.Identity() == nil {
		return domain.Product{}, domain.WithOp(favorites.ErrAuthRequired, op)
	}
	return lookupProduct(r.Context(), h.catalog, op, id)
}

func recordFavorite(action string, err error) {
	if telemetry.Business != nil {
		telemetry.Business.FavoritesChanged.WithLabelValues(action, resultLabel(err)).Inc()
	}
}
