package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/esans/internal/cart"
	"github.com/dukerupert/esans/internal/checkout"
	"github.com/dukerupert/esans/internal/discount"
	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/favorites"
	"github.com/dukerupert/esans/internal/telemetry"
)

// Bundle is the state of one browser session.
type Bundle struct {
	ID        string
	Cart      *cart.Store
	Discount  *discount.Session
	Favorites *favorites.Store

	orders    checkout.OrderCreator
	persister *cart.Persister
	logger    *slog.Logger

	hydrateOnce sync.Once

	mu     sync.Mutex
	seen   time.Time
	userID string
	flow   *checkout.Flow
}

// Checkout returns the checkout in progress. A completed checkout is
// replaced by a fresh one once the cart has items again.
func (b *Bundle) Checkout() *checkout.Flow {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flow == nil || (b.flow.State().Complete && !b.Cart.Snapshot().IsEmpty()) {
		b.flow = checkout.NewFlow(b.Cart, b.orders, b.logger)
	}
	return b.flow
}

// Authenticate forwards the authentication signal to the favorites store
// when the signed-in user changes. A nil identity signs the session out.
// For the same user only the token is renewed. The user is recorded only
// once favorites have synced, so a failed fetch is retried on the next call.
func (b *Bundle) Authenticate(ctx context.Context, identity *domain.Identity) error {
	var userID string
	if identity != nil {
		userID = identity.UserID
	}

	b.mu.Lock()
	same := userID == b.userID
	b.mu.Unlock()
	if same {
		if identity != nil {
			b.Favorites.RenewToken(identity)
		}
		return nil
	}

	b.logger.Debug("session identity changed", slog.String("user_id", userID))
	err := b.Favorites.SetIdentity(ctx, identity)
	if identity != nil && telemetry.Business != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		telemetry.Business.FavoritesSynced.WithLabelValues(result).Inc()
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.userID = userID
	b.mu.Unlock()
	return nil
}

// UserID returns the signed-in user's id, or "" for a guest.
func (b *Bundle) UserID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userID
}

func (b *Bundle) touch(t time.Time) {
	b.mu.Lock()
	b.seen = t
	b.mu.Unlock()
}

func (b *Bundle) lastSeen() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}

func (b *Bundle) close() {
	if err := b.persister.Close(); err != nil {
		b.logger.Error("failed to flush cart", slog.String("error", err.Error()))
	}
}
