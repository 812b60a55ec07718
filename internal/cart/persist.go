package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/storage"
	"github.com/dukerupert/esans/internal/telemetry"
)

// StorageKey returns the durable key for a session's cart.
func StorageKey(namespace, sessionID string) string {
	return namespace + ":cart:" + sessionID
}

// persistTimeout bounds a single storage write.
const persistTimeout = 5 * time.Second

// Persister writes the cart's items to durable storage after every change.
//
// Observe only records the latest payload; a background goroutine performs
// the write, so storage I/O never happens under the store lock. Writes are
// coalesced: if several changes land during one write, only the newest is
// written next.
type Persister struct {
	storage storage.Storage
	key     string
	logger  *slog.Logger

	mu      sync.Mutex
	pending []byte
	dirty   bool

	// writeMu serializes take-and-write so an older payload never lands
	// after a newer one.
	writeMu sync.Mutex

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewPersister starts a persister writing to key.
func NewPersister(s storage.Storage, key string, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Persister{
		storage: s,
		key:     key,
		logger:  logger.With(slog.String("cart_key", key)),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Key returns the storage key the persister writes to.
func (p *Persister) Key() string {
	return p.key
}

// Observe is the cart Observer. It serializes the items array and schedules a write.
func (p *Persister) Observe(snap Snapshot) {
	items := snap.Items
	if items == nil {
		items = []domain.CartLineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		p.logger.Error("failed to encode cart", slog.String("error", err.Error()))
		return
	}

	p.mu.Lock()
	p.pending = data
	p.dirty = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush writes any pending payload now.
func (p *Persister) Flush(ctx context.Context) error {
	return p.write(ctx)
}

// Close stops the background writer after a final flush.
func (p *Persister) Close() error {
	p.once.Do(func() {
		close(p.quit)
	})
	<-p.done

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return p.write(ctx)
}

func (p *Persister) run() {
	defer close(p.done)

	for {
		select {
		case <-p.wake:
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			if err := p.write(ctx); err != nil {
				p.logger.Error("failed to persist cart", slog.String("error", err.Error()))
			}
			cancel()
		case <-p.quit:
			return
		}
	}
}

func (p *Persister) write(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return nil
	}
	data := p.pending
	p.dirty = false
	p.mu.Unlock()

	if err := p.storage.Put(ctx, p.key, data); err != nil {
		// Keep the payload so the next change or flush retries it,
		// unless a newer one has arrived meanwhile.
		p.mu.Lock()
		if !p.dirty {
			p.pending = data
			p.dirty = true
		}
		p.mu.Unlock()

		if telemetry.Business != nil {
			telemetry.Business.CartPersistErr.Inc()
		}
		return err
	}

	return nil
}

// Hydrate loads the cart stored at key and replays every line through
// AddItem, so duplicate lines in the payload are coalesced. Lines with a
// quantity below 1 or no product id are dropped. A missing key, a malformed payload or a
// storage failure leave the cart as is; failures are logged, never returned.
// It returns the number of lines in the cart afterwards.
func (s *Store) Hydrate(ctx context.Context, st storage.Storage, key string) int {
	data, err := st.Get(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			recordHydrate("empty")
			return s.lineCount()
		}
		s.logger.Error("failed to load persisted cart",
			slog.String("cart_key", key),
			slog.String("error", err.Error()),
		)
		recordHydrate("error")
		return s.lineCount()
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("ignoring malformed persisted cart",
			slog.String("cart_key", key),
			slog.String("error", err.Error()),
		)
		recordHydrate("malformed")
		return s.lineCount()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.Product.ID == "" {
			continue
		}
		s.state = Reduce(s.state, AddItem{
			Product:  item.Product,
			Quantity: item.Quantity,
			Size:     item.Size,
			Quality:  item.Quality,
		})
	}
	s.recompute()
	s.notify()

	recordHydrate("restored")
	return len(s.state.Items)
}

func (s *Store) lineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Items)
}

func recordHydrate(result string) {
	if telemetry.Business != nil {
		telemetry.Business.CartHydrated.WithLabelValues(result).Inc()
	}
}
