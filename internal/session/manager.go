// Package session keeps one bundle of stores per browser session: the cart,
// its discount, the shopper's favorites and the checkout in progress.
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
	"github.com/dukerupert/esans/internal/storage"
	"github.com/dukerupert/esans/internal/telemetry"
)

// hydrateTimeout bounds loading a persisted cart when a bundle is created.
const hydrateTimeout = 5 * time.Second

// Remote is everything the stores of a bundle need from the store API.
type Remote interface {
	discount.Validator
	favorites.Remote
	checkout.OrderCreator
}

// Config controls bundle lifetime.
type Config struct {
	// Namespace prefixes storage keys, e.g. "esans" -> "esans:cart:<id>".
	Namespace string

	// IdleTimeout is how long an untouched bundle is kept in memory.
	// Its cart stays in storage and is hydrated again on the next visit.
	IdleTimeout time.Duration

	// JanitorInterval is how often idle bundles are looked for.
	// Defaults to a quarter of IdleTimeout.
	JanitorInterval time.Duration
}

// Manager owns the live bundles. It is safe for concurrent use.
type Manager struct {
	cfg     Config
	storage storage.Storage
	remote  Remote
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	bundles map[string]*Bundle

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager and starts its janitor.
func NewManager(cfg Config, st storage.Storage, remote Remote, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Hour
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = cfg.IdleTimeout / 4
	}

	m := &Manager{
		cfg:     cfg,
		storage: st,
		remote:  remote,
		logger:  logger,
		now:     time.Now,
		bundles: make(map[string]*Bundle),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Get returns the bundle for sessionID, creating and hydrating it on first
// use. Concurrent callers for a new session wait for the same hydration.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Bundle, error) {
	if sessionID == "" {
		return nil, domain.Invalid("session.Get", "Session id is required")
	}

	m.mu.Lock()
	b, ok := m.bundles[sessionID]
	if !ok {
		b = m.newBundle(sessionID)
		m.bundles[sessionID] = b
		m.recordActive()
	}
	b.touch(m.now())
	m.mu.Unlock()

	b.hydrateOnce.Do(func() {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hydrateTimeout)
		defer cancel()
		lines := b.Cart.Hydrate(hctx, m.storage, b.persister.Key())
		b.logger.Debug("session bundle created", slog.Int("cart_lines", lines))
	})

	return b, nil
}

// Len returns the number of live bundles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bundles)
}

// Stop ends the janitor and flushes every live cart. It is safe to call
// more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done

		m.mu.Lock()
		bundles := make([]*Bundle, 0, len(m.bundles))
		for id, b := range m.bundles {
			bundles = append(bundles, b)
			delete(m.bundles, id)
		}
		m.recordActive()
		m.mu.Unlock()

		for _, b := range bundles {
			b.close()
		}
		m.logger.Info("session manager stopped", slog.Int("flushed", len(bundles)))
	})
}

func (m *Manager) newBundle(sessionID string) *Bundle {
	logger := m.logger.With(slog.String("session_id", sessionID))

	discounts := discount.NewSession(m.remote, logger)
	persister := cart.NewPersister(m.storage, cart.StorageKey(m.cfg.Namespace, sessionID), logger)
	store := cart.NewStore(
		cart.WithLogger(logger),
		cart.WithDiscount(discounts),
		cart.WithPersister(persister),
	)
	discounts.Subscribe(store.DiscountChanged)

	return &Bundle{
		ID:        sessionID,
		Cart:      store,
		Discount:  discounts,
		Favorites: favorites.NewStore(m.remote, logger),
		orders:    m.remote,
		persister: persister,
		logger:    logger,
	}
}

func (m *Manager) janitor() {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stop:
			return
		}
	}
}

// evictIdle drops bundles untouched for longer than the idle timeout.
// Their carts are flushed outside the manager lock.
func (m *Manager) evictIdle() int {
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var idle []*Bundle
	for id, b := range m.bundles {
		if b.lastSeen().Before(cutoff) {
			idle = append(idle, b)
			delete(m.bundles, id)
		}
	}
	if len(idle) > 0 {
		m.recordActive()
	}
	m.mu.Unlock()

	for _, b := range idle {
		b.close()
	}
	if len(idle) > 0 {
		m.logger.Debug("evicted idle sessions", slog.Int("count", len(idle)))
		if telemetry.Business != nil {
			telemetry.Business.SessionsEvicted.Add(float64(len(idle)))
		}
	}
	return len(idle)
}

// recordActive must be called with m.mu held.
func (m *Manager) recordActive() {
	if telemetry.Business != nil {
		telemetry.Business.SessionsActive.Set(float64(len(m.bundles)))
	}
}
