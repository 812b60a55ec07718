package cart

import (
	"sync"
	"testing"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDiscount is a DiscountSource that calls back into the cart on
// change, like the real discount session does.
type fakeDiscount struct {
	mu       sync.Mutex
	applied  *domain.AppliedDiscount
	onChange func(*domain.AppliedDiscount)
	removed  int
}

func (f *fakeDiscount) Applied() *domain.AppliedDiscount {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied
}

func (f *fakeDiscount) Remove() {
	f.mu.Lock()
	f.applied = nil
	f.removed++
	cb := f.onChange
	f.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
}

func (f *fakeDiscount) set(d *domain.AppliedDiscount) {
	f.mu.Lock()
	f.applied = d
	cb := f.onChange
	f.mu.Unlock()
	if cb != nil {
		cb(d)
	}
}

func newStoreWithDiscount() (*Store, *fakeDiscount) {
	d := &fakeDiscount{}
	s := NewStore(WithDiscount(d))
	d.onChange = s.DiscountChanged
	return s, d
}

func tenPercent() *domain.AppliedDiscount {
	return &domain.AppliedDiscount{Code: "ON", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)}
}

func TestStore_AddToCartCoalesces(t *testing.T) {
	s := NewStore()
	p := perfume("p1")

	require.NoError(t, s.AddToCart(p, 1, "50", domain.QualityOriginal))
	require.NoError(t, s.AddToCart(p, 2, "50", domain.QualityOriginal))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, 3, snap.Totals.Count)
	assert.True(t, decimal.NewFromInt(300).Equal(snap.Totals.Subtotal))
}

func TestStore_AddToCartRejectsBadInput(t *testing.T) {
	s := NewStore()

	err := s.AddToCart(perfume("p1"), 0, "50", domain.QualityOriginal)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	err = s.AddToCart(domain.Product{}, 1, "50", domain.QualityOriginal)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	assert.True(t, s.Snapshot().IsEmpty())
}

func TestStore_UpdateToZeroEqualsRemove(t *testing.T) {
	p := perfume("p1")
	line := domain.LineID("p1", "50", domain.QualityOriginal)

	updated := NewStore()
	require.NoError(t, updated.AddToCart(p, 2, "50", domain.QualityOriginal))
	require.NoError(t, updated.UpdateCartItem(line, 0))

	removed := NewStore()
	require.NoError(t, removed.AddToCart(p, 2, "50", domain.QualityOriginal))
	removed.RemoveFromCart(line)

	assert.Equal(t, removed.Snapshot(), updated.Snapshot())
	assert.True(t, updated.Snapshot().IsEmpty())
}

func TestStore_UpdateUnknownLine(t *testing.T) {
	s := NewStore()

	err := s.UpdateCartItem("missing", 2)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	assert.NoError(t, s.UpdateCartItem("missing", 0), "removing via update is a no-op for unknown lines")
}

func TestStore_ClearCartRemovesDiscount(t *testing.T) {
	s, d := newStoreWithDiscount()
	require.NoError(t, s.AddToCart(perfume("p1"), 2, "50", domain.QualityOriginal))
	d.set(tenPercent())

	before := s.Snapshot()
	require.NotNil(t, before.Discount)
	assert.True(t, decimal.NewFromInt(180).Equal(before.Totals.Total))

	s.ClearCart()

	after := s.Snapshot()
	assert.Nil(t, after.Discount)
	assert.Nil(t, d.Applied())
	assert.Equal(t, 1, d.removed)
	assert.True(t, after.IsEmpty())
	assert.True(t, after.Totals.Total.IsZero())
}

func TestStore_DiscountChangeRecomputesTotals(t *testing.T) {
	s, d := newStoreWithDiscount()
	require.NoError(t, s.AddToCart(perfume("p1"), 2, "50", domain.QualityOriginal))

	var seen []string
	s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Totals.Total.String())
	})

	d.set(tenPercent())
	d.Remove()

	assert.Equal(t, []string{"180", "200"}, seen)
}

func TestStore_ObserversSeeEveryMutationInOrder(t *testing.T) {
	var counts []int
	s := NewStore(WithObserver(func(snap Snapshot) {
		counts = append(counts, snap.Totals.Count)
	}))
	p := perfume("p1")
	line := domain.LineID("p1", "50", domain.QualityOriginal)

	require.NoError(t, s.AddToCart(p, 1, "50", domain.QualityOriginal))
	require.NoError(t, s.AddToCart(p, 2, "50", domain.QualityOriginal))
	require.NoError(t, s.UpdateCartItem(line, 5))
	s.RemoveFromCart(line)

	assert.Equal(t, []int{1, 3, 5, 0}, counts)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddToCart(perfume("p1"), 1, "50", domain.QualityOriginal))

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99

	assert.Equal(t, 1, s.Snapshot().Items[0].Quantity)
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	s := NewStore()
	p := perfume("p1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddToCart(p, 1, "50", domain.QualityOriginal)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 50, snap.Items[0].Quantity)
	assert.Equal(t, 50, snap.Totals.Count, "totals match the items they were read with")
}

func TestSnapshot_ProductIDs(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddToCart(perfume("p1"), 1, "50", domain.QualityOriginal))
	require.NoError(t, s.AddToCart(perfume("p2"), 1, "50", domain.QualityOriginal))
	require.NoError(t, s.AddToCart(perfume("p1"), 1, "100", domain.QualityPremium))

	assert.Equal(t, []string{"p1", "p2"}, s.Snapshot().ProductIDs())
}
