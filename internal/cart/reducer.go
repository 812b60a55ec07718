// Package cart holds the shopping cart state machine.
//
// State changes are expressed as Actions applied by the pure Reduce
// function. Store wraps Reduce with a mutex, derived totals, observers and
// an optional discount source.
package cart

import (
	"slices"

	"github.com/dukerupert/esans/internal/domain"
)

// Action is one cart state transition.
type Action interface {
	isAction()
}

// AddItem adds Quantity of a product/size/quality combination.
// An existing line with the same key has its quantity incremented.
type AddItem struct {
	Product  domain.Product
	Quantity int
	Size     domain.Size
	Quality  string
}

// UpdateItem sets a line's quantity exactly. Quantity <= 0 removes the line.
type UpdateItem struct {
	LineID   string
	Quantity int
}

// RemoveItem deletes a line. Unknown ids are ignored.
type RemoveItem struct {
	LineID string
}

// Clear empties the cart.
type Clear struct{}

func (AddItem) isAction()    {}
func (UpdateItem) isAction() {}
func (RemoveItem) isAction() {}
func (Clear) isAction()      {}

// State is the cart's line collection.
type State struct {
	Items []domain.CartLineItem
}

// Find returns the index of the line with id, or -1.
func (s State) Find(id string) int {
	return slices.IndexFunc(s.Items, func(item domain.CartLineItem) bool {
		return item.ID == id
	})
}

// Reduce applies a to s and returns the new state. s is never modified.
// Actions that would break the quantity >= 1 invariant leave the state as is.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddItem:
		if a.Quantity < 1 {
			return s
		}
		id := domain.LineID(a.Product.ID, a.Size, a.Quality)
		items := slices.Clone(s.Items)
		if i := s.Find(id); i >= 0 {
			items[i].Quantity += a.Quantity
			return State{Items: items}
		}
		return State{Items: append(items, domain.NewCartLineItem(a.Product, a.Quantity, a.Size, a.Quality))}

	case UpdateItem:
		if a.Quantity <= 0 {
			return Reduce(s, RemoveItem{LineID: a.LineID})
		}
		i := s.Find(a.LineID)
		if i < 0 {
			return s
		}
		items := slices.Clone(s.Items)
		items[i].Quantity = a.Quantity
		return State{Items: items}

	case RemoveItem:
		i := s.Find(a.LineID)
		if i < 0 {
			return s
		}
		return State{Items: slices.Delete(slices.Clone(s.Items), i, i+1)}

	case Clear:
		return State{}
	}

	return s
}
