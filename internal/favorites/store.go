package favorites

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukerupert/esans/internal/domain"
)

// ErrAuthRequired is returned by mutations while nobody is signed in.
var ErrAuthRequired = &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Please sign in to manage favorites"}

// Remote is the favorites part of the store API.
type Remote interface {
	ListFavorites(ctx context.Context, token string) ([]domain.Product, error)
	AddFavorite(ctx context.Context, token, productID string) error
	RemoveFavorite(ctx context.Context, token, productID string) error
	ToggleFavorite(ctx context.Context, token, productID string) (bool, error)
}

// State is the observable state of the favorites store.
type State struct {
	Items   []domain.Product `json:"items"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
}

// Store holds one shopper's favorites. The server is the source of truth:
// local state only changes after the server confirms.
type Store struct {
	remote Remote
	logger *slog.Logger

	mu       sync.Mutex
	items    []domain.Product
	loading  bool
	errMsg   string
	identity *domain.Identity

	// generation increments on every identity change. Responses started
	// under an older generation are discarded.
	generation uint64
}

// NewStore creates an empty, signed-out favorites store.
func NewStore(remote Remote, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{remote: remote, logger: logger, items: []domain.Product{}}
}

// SetIdentity reacts to the authentication signal. A nil identity clears
// the store at once without a network call. Otherwise the full collection
// is fetched for the identity and replaces local state.
func (s *Store) SetIdentity(ctx context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.identity = identity
	if identity == nil {
		s.items = Reduce(s.items, Reset{})
		s.loading = false
		s.errMsg = ""
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	items, err := s.remote.ListFavorites(ctx, identity.Token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("dropping stale favorites fetch", slog.String("user_id", identity.UserID))
		return nil
	}

	s.loading = false
	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		return err
	}

	s.items = Reduce(s.items, Replace{Items: items})
	s.errMsg = ""
	return nil
}

// RenewToken swaps in a fresh credential for the identity the store is
// already synced for. Items are kept and nothing is fetched. It returns
// false when identity belongs to a different user.
func (s *Store) RenewToken(identity *domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil || identity == nil || s.identity.UserID != identity.UserID {
		return false
	}
	s.identity = identity
	return true
}

// Add favorites product.
func (s *Store) Add(ctx context.Context, product domain.Product) error {
	return s.mutate("favorites.Add", product.ID, func(token string) (Action, error) {
		if err := s.remote.AddFavorite(ctx, token, product.ID); err != nil {
			return nil, err
		}
		return Added{Product: product}, nil
	})
}

// Remove unfavorites the product with id.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate("favorites.Remove", id, func(token string) (Action, error) {
		if err := s.remote.RemoveFavorite(ctx, token, id); err != nil {
			return nil, err
		}
		return Removed{ID: id}, nil
	})
}

// Toggle flips product's membership on the server and applies the
// membership the server reports, whatever the local state was.
// It returns the resulting membership.
func (s *Store) Toggle(ctx context.Context, product domain.Product) (bool, error) {
	var member bool
	err := s.mutate("favorites.Toggle", product.ID, func(token string) (Action, error) {
		isFavorite, err := s.remote.ToggleFavorite(ctx, token, product.ID)
		if err != nil {
			return nil, err
		}
		member = isFavorite
		if isFavorite {
			return Added{Product: product}, nil
		}
		return Removed{ID: product.ID}, nil
	})
	return member, err
}

// IsFavorite reports whether id is in the local collection.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsID(s.items, id)
}

// Identity returns the identity the store is synced for, or nil.
func (s *Store) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Items: slices.Clone(s.items), Loading: s.loading, Error: s.errMsg}
}

// mutate runs call with the current identity's token and applies the
// action it returns, unless the identity changed in the meantime.
func (s *Store) mutate(op, id string, call func(token string) (Action, error)) error {
	s.mu.Lock()
	identity := s.identity
	gen := s.generation
	s.mu.Unlock()

	if identity == nil {
		s.recordError(gen, ErrAuthRequired.Message)
		return domain.WithOp(ErrAuthRequired, op)
	}
	if id == "" {
		err := domain.Invalid(op, "Product id is required")
		s.recordError(gen, domain.ErrorMessage(err))
		return err
	}

	action, err := call(identity.Token)
	if err != nil {
		s.logger.Info("favorites update failed",
			slog.String("op", op),
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.recordError(gen, domain.ErrorMessage(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.items = Reduce(s.items, action)
	s.errMsg = ""
	return nil
}

func (s *Store) recordError(gen uint64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.errMsg = msg
	}
}
