package domain

import "strings"

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrCartEmpty        = &Error{Code: EINVALID, Message: "Cart is empty"}
)

// Quality tiers offered by the storefront. The store accepts any label;
// these are the ones the catalog uses.
const (
	QualityOriginal = "Original"
	QualityPremium  = "Premium"
	QualityLuxury   = "Luxury"
)

// CartLineItem is one line of the shopping cart.
// ID is derived from product, size and quality; two lines never share an ID.
type CartLineItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Size     Size    `json:"size"`
	Quality  string  `json:"quality"`
}

// lineIDEscaper keeps the "-" separator unambiguous: a component that
// contains "-" or "%" is percent-escaped before joining.
var lineIDEscaper = strings.NewReplacer("%", "%25", "-", "%2D")

// LineID builds the composite key for a cart line. Distinct
// (product, size, quality) triples always yield distinct keys.
func LineID(productID string, size Size, quality string) string {
	return strings.Join([]string{
		lineIDEscaper.Replace(productID),
		lineIDEscaper.Replace(string(size)),
		lineIDEscaper.Replace(quality),
	}, "-")
}

// NewCartLineItem builds a line with its composite key filled in.
func NewCartLineItem(product Product, quantity int, size Size, quality string) CartLineItem {
	return CartLineItem{
		ID:       LineID(product.ID, size, quality),
		Product:  product,
		Quantity: quantity,
		Size:     size,
		Quality:  quality,
	}
}
