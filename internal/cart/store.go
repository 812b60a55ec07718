package cart

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/totals"
)

// Snapshot is a consistent read of the cart: items and the totals derived
// from exactly those items and the discount applied at the same moment.
type Snapshot struct {
	Items    []domain.CartLineItem    `json:"items"`
	Totals   totals.Totals            `json:"totals"`
	Discount *domain.AppliedDiscount `json:"appliedDiscount"`
}

// ProductIDs returns the distinct product ids in the cart, in line order.
func (s Snapshot) ProductIDs() []string {
	ids := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		if !slices.Contains(ids, item.Product.ID) {
			ids = append(ids, item.Product.ID)
		}
	}
	return ids
}

// IsEmpty reports whether the cart has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Observer is called after every state change with the new snapshot.
// Observers run in mutation order while the store is locked and must not
// call back into the store.
type Observer func(Snapshot)

// DiscountSource supplies the discount the totals are computed against.
type DiscountSource interface {
	Applied() *domain.AppliedDiscount
	Remove()
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDiscount attaches the discount used for totals and cleared with the cart.
func WithDiscount(src DiscountSource) Option {
	return func(s *Store) {
		s.discount = src
	}
}

// WithPersister registers p as an observer at construction.
func WithPersister(p *Persister) Option {
	return func(s *Store) {
		s.observers = append(s.observers, p.Observe)
	}
}

// WithObserver registers o at construction.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, o)
	}
}

// Store is the cart of one browser session. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	state     State
	totals    totals.Totals
	applied   *domain.AppliedDiscount
	discount  DiscountSource
	observers []Observer
	logger    *slog.Logger
}

// NewStore creates an empty cart.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s
}

// AddToCart adds quantity of product in the given size and quality.
// Size and quality are taken as given; the catalog is not consulted.
func (s *Store) AddToCart(product domain.Product, quantity int, size domain.Size, quality string) error {
	if quantity < 1 {
		return domain.WithOp(domain.ErrInvalidQuantity, "cart.AddToCart")
	}
	if product.ID == "" {
		return domain.Invalid("cart.AddToCart", "Product id is required")
	}

	s.dispatch(AddItem{Product: product, Quantity: quantity, Size: size, Quality: quality})
	return nil
}

// UpdateCartItem sets the quantity of a line. A quantity <= 0 removes it.
// Setting a positive quantity on an unknown line returns ErrCartItemNotFound.
func (s *Store) UpdateCartItem(lineID string, quantity int) error {
	if quantity > 0 {
		s.mu.Lock()
		missing := s.state.Find(lineID) < 0
		s.mu.Unlock()
		if missing {
			return domain.WithOp(domain.ErrCartItemNotFound, "cart.UpdateCartItem")
		}
	}

	s.dispatch(UpdateItem{LineID: lineID, Quantity: quantity})
	return nil
}

// RemoveFromCart deletes a line. Removing an unknown line is a no-op.
func (s *Store) RemoveFromCart(lineID string) {
	s.dispatch(RemoveItem{LineID: lineID})
}

// ClearCart empties the cart and removes any applied discount.
func (s *Store) ClearCart() {
	// The discount is removed first; its change notification re-enters the
	// store through DiscountChanged, so it must run without s.mu held.
	if s.discount != nil {
		s.discount.Remove()
	}
	s.dispatch(Clear{})
}

// DiscountChanged recomputes totals against the current discount. It is
// meant to be subscribed to the discount source.
func (s *Store) DiscountChanged(*domain.AppliedDiscount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recompute()
	s.notify()
}

// Snapshot returns the current items, totals and applied discount.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers an observer for subsequent changes.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)
	s.recompute()

	s.logger.Debug("cart updated",
		slog.String("action", actionName(a)),
		slog.Int("lines", len(s.state.Items)),
		slog.Int("count", s.totals.Count),
	)

	s.notify()
}

// recompute must be called with s.mu held.
func (s *Store) recompute() {
	s.applied = nil
	if s.discount != nil {
		s.applied = s.discount.Applied()
	}
	s.totals = totals.Compute(s.state.Items, s.applied)
}

// notify must be called with s.mu held.
func (s *Store) notify() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.snapshot()
	for _, o := range s.observers {
		o(snap)
	}
}

func (s *Store) snapshot() Snapshot {
	items := slices.Clone(s.state.Items)
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return Snapshot{Items: items, Totals: s.totals, Discount: s.applied}
}

func actionName(a Action) string {
	switch a.(type) {
	case AddItem:
		return "add"
	case UpdateItem:
		return "update"
	case RemoveItem:
		return "remove"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}
