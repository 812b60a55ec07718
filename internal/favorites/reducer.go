// Package favorites keeps the signed-in shopper's favorite perfumes in sync
// with the store API.
package favorites

import (
	"slices"

	"github.com/dukerupert/esans/internal/domain"
)

// Action is one favorites state transition.
type Action interface {
	isAction()
}

// Replace sets the whole collection, as after a fetch.
type Replace struct {
	Items []domain.Product
}

// Added records a product the server confirmed as favorited.
type Added struct {
	Product domain.Product
}

// Removed records a product the server confirmed as no longer favorited.
type Removed struct {
	ID string
}

// Reset empties the collection, as on sign-out.
type Reset struct{}

func (Replace) isAction() {}
func (Added) isAction()   {}
func (Removed) isAction() {}
func (Reset) isAction()   {}

// Reduce applies a to items and returns the new collection.
// items is never modified. Entries without an id are never kept.
func Reduce(items []domain.Product, a Action) []domain.Product {
	switch a := a.(type) {
	case Replace:
		out := make([]domain.Product, 0, len(a.Items))
		for _, p := range a.Items {
			if p.ID == "" || containsID(out, p.ID) {
				continue
			}
			out = append(out, p)
		}
		return out

	case Added:
		if a.Product.ID == "" || containsID(items, a.Product.ID) {
			return items
		}
		return append(slices.Clone(items), a.Product)

	case Removed:
		return slices.DeleteFunc(slices.Clone(items), func(p domain.Product) bool {
			return p.ID == a.ID
		})

	case Reset:
		return []domain.Product{}
	}

	return items
}

func containsID(items []domain.Product, id string) bool {
	return slices.ContainsFunc(items, func(p domain.Product) bool {
		return p.ID == id
	})
}
