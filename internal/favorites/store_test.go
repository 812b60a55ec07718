package favorites

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	mu sync.Mutex

	ListFunc   func(ctx context.Context, token string) ([]domain.Product, error)
	AddFunc    func(ctx context.Context, token, productID string) error
	RemoveFunc func(ctx context.Context, token, productID string) error
	ToggleFunc func(ctx context.Context, token, productID string) (bool, error)

	calls int
}

func (m *mockRemote) hit() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockRemote) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockRemote) ListFavorites(ctx context.Context, token string) ([]domain.Product, error) {
	m.hit()
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx, token)
}

func (m *mockRemote) AddFavorite(ctx context.Context, token, productID string) error {
	m.hit()
	if m.AddFunc == nil {
		return nil
	}
	return m.AddFunc(ctx, token, productID)
}

func (m *mockRemote) RemoveFavorite(ctx context.Context, token, productID string) error {
	m.hit()
	if m.RemoveFunc == nil {
		return nil
	}
	return m.RemoveFunc(ctx, token, productID)
}

func (m *mockRemote) ToggleFavorite(ctx context.Context, token, productID string) (bool, error) {
	m.hit()
	return m.ToggleFunc(ctx, token, productID)
}

var (
	ayse   = &domain.Identity{UserID: "u1", Email: "ayse@example.com", Token: "tok-1"}
	mehmet = &domain.Identity{UserID: "u2", Email: "mehmet@example.com", Token: "tok-2"}
)

func product(id string) domain.Product {
	return domain.Product{ID: id, Title: "Perfume " + id}
}

func ids(items []domain.Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestStore_SetIdentityFetchesAndFilters(t *testing.T) {
	remote := &mockRemote{ListFunc: func(_ context.Context, token string) ([]domain.Product, error) {
		assert.Equal(t, "tok-1", token)
		return []domain.Product{product("p1"), {Title: "no id"}, product("p2"), product("p1")}, nil
	}}
	s := NewStore(remote, nil)

	require.NoError(t, s.SetIdentity(context.Background(), ayse))

	state := s.State()
	assert.Equal(t, []string{"p1", "p2"}, ids(state.Items))
	assert.False(t, state.Loading)
	assert.True(t, s.IsFavorite("p2"))
}

func TestStore_SignOutClearsWithoutNetwork(t *testing.T) {
	remote := &mockRemote{ListFunc: func(context.Context, string) ([]domain.Product, error) {
		return []domain.Product{product("p1")}, nil
	}}
	s := NewStore(remote, nil)
	require.NoError(t, s.SetIdentity(context.Background(), ayse))
	before := remote.callCount()

	require.NoError(t, s.SetIdentity(context.Background(), nil))

	assert.Equal(t, before, remote.callCount())
	assert.Empty(t, s.State().Items)
	assert.Nil(t, s.Identity())
}

func TestStore_FetchFailureRecordsError(t *testing.T) {
	remote := &mockRemote{ListFunc: func(context.Context, string) ([]domain.Product, error) {
		return nil, domain.Remote("remote.ListFavorites", "Oturum süresi doldu")
	}}
	s := NewStore(remote, nil)

	err := s.SetIdentity(context.Background(), ayse)
	require.Error(t, err)

	state := s.State()
	assert.Equal(t, "Oturum süresi doldu", state.Error)
	assert.False(t, state.Loading)
}

func TestStore_StaleFetchIsDropped(t *testing.T) {
	release := make(chan struct{})
	remote := &mockRemote{ListFunc: func(_ context.Context, token string) ([]domain.Product, error) {
		if token == "tok-1" {
			<-release
			return []domain.Product{product("stale")}, nil
		}
		return []domain.Product{product("fresh")}, nil
	}}
	s := NewStore(remote, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.SetIdentity(context.Background(), ayse)
	}()
	require.Eventually(t, func() bool { return s.State().Loading }, time.Second, time.Millisecond)

	// Sign out while the fetch is in flight.
	require.NoError(t, s.SetIdentity(context.Background(), nil))
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, s.State().Items, "fetch for a signed-out identity must not repopulate")

	require.NoError(t, s.SetIdentity(context.Background(), mehmet))
	assert.Equal(t, []string{"fresh"}, ids(s.State().Items))
}

func TestStore_MutationsRequireAuth(t *testing.T) {
	remote := &mockRemote{}
	s := NewStore(remote, nil)
	ctx := context.Background()

	err := s.Add(ctx, product("p1"))
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	assert.ErrorIs(t, s.Remove(ctx, "p1"), ErrAuthRequired)

	_, err = s.Toggle(ctx, product("p1"))
	assert.ErrorIs(t, err, ErrAuthRequired)

	assert.Zero(t, remote.callCount(), "no network call while signed out")
	assert.Equal(t, ErrAuthRequired.Message, s.State().Error)
	assert.Empty(t, s.State().Items)
}

func TestStore_AddAndRemove(t *testing.T) {
	remote := &mockRemote{}
	s := NewStore(remote, nil)
	ctx := context.Background()
	require.NoError(t, s.SetIdentity(ctx, ayse))

	require.NoError(t, s.Add(ctx, product("p1")))
	require.NoError(t, s.Add(ctx, product("p1")))
	assert.Equal(t, []string{"p1"}, ids(s.State().Items), "adding twice keeps one entry")

	require.NoError(t, s.Remove(ctx, "p1"))
	assert.False(t, s.IsFavorite("p1"))
}

func TestStore_RenewTokenKeepsItems(t *testing.T) {
	var tokens []string
	remote := &mockRemote{
		ListFunc: func(context.Context, string) ([]domain.Product, error) {
			return []domain.Product{product("p1")}, nil
		},
		AddFunc: func(_ context.Context, token, _ string) error {
			tokens = append(tokens, token)
			return nil
		},
	}
	s := NewStore(remote, nil)
	ctx := context.Background()

	assert.False(t, s.RenewToken(ayse), "nothing to renew while signed out")

	require.NoError(t, s.SetIdentity(ctx, ayse))
	renewed := &domain.Identity{UserID: ayse.UserID, Token: "tok-renewed"}
	assert.True(t, s.RenewToken(renewed))
	assert.False(t, s.RenewToken(mehmet), "a different user needs SetIdentity")

	require.NoError(t, s.Add(ctx, product("p2")))
	assert.Equal(t, []string{"tok-renewed"}, tokens)
	assert.Equal(t, []string{"p1", "p2"}, ids(s.State().Items))
	assert.Equal(t, 2, remote.callCount(), "one fetch and one add, renewal does not refetch")
}

func TestStore_FailedMutationLeavesStateUnchanged(t *testing.T) {
	remote := &mockRemote{
		ListFunc: func(context.Context, string) ([]domain.Product, error) {
			return []domain.Product{product("p1")}, nil
		},
		AddFunc: func(context.Context, string, string) error {
			return domain.Remote("remote.AddFavorite", "Ürün bulunamadı")
		},
		RemoveFunc: func(context.Context, string, string) error {
			return domain.Unavailable(nil, "remote.RemoveFavorite", "Store API is unavailable")
		},
	}
	s := NewStore(remote, nil)
	ctx := context.Background()
	require.NoError(t, s.SetIdentity(ctx, ayse))

	err := s.Add(ctx, product("p2"))
	require.Error(t, err)
	assert.Equal(t, "Ürün bulunamadı", domain.ErrorMessage(err))
	assert.Equal(t, "Ürün bulunamadı", s.State().Error)

	require.Error(t, s.Remove(ctx, "p1"))
	assert.Equal(t, []string{"p1"}, ids(s.State().Items))
	assert.Equal(t, "Store API is unavailable", s.State().Error)
}

func TestStore_ToggleFollowsServer(t *testing.T) {
	tests := []struct {
		name       string
		startWith  []domain.Product
		serverSays bool
		want       bool
	}{
		{"not favorited, server adds", nil, true, true},
		{"not favorited, server says removed", nil, false, false},
		{"favorited, server removes", []domain.Product{product("p1")}, false, false},
		{"favorited, server says still favorited", []domain.Product{product("p1")}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &mockRemote{
				ListFunc: func(context.Context, string) ([]domain.Product, error) {
					return tt.startWith, nil
				},
				ToggleFunc: func(context.Context, string, string) (bool, error) {
					return tt.serverSays, nil
				},
			}
			s := NewStore(remote, nil)
			ctx := context.Background()
			require.NoError(t, s.SetIdentity(ctx, ayse))

			got, err := s.Toggle(ctx, product("p1"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.IsFavorite("p1"))
		})
	}
}

func TestStore_SuccessClearsError(t *testing.T) {
	fail := true
	remote := &mockRemote{AddFunc: func(context.Context, string, string) error {
		if fail {
			return domain.Remote("remote.AddFavorite", "Geçici hata")
		}
		return nil
	}}
	s := NewStore(remote, nil)
	ctx := context.Background()
	require.NoError(t, s.SetIdentity(ctx, ayse))

	require.Error(t, s.Add(ctx, product("p1")))
	fail = false
	require.NoError(t, s.Add(ctx, product("p1")))
	assert.Empty(t, s.State().Error)
}

func TestReduce(t *testing.T) {
	start := []domain.Product{product("p1")}

	assert.Equal(t, []string{"p1", "p2"}, ids(Reduce(start, Added{Product: product("p2")})))
	assert.Equal(t, []string{"p1"}, ids(Reduce(start, Added{Product: domain.Product{}})))
	assert.Empty(t, Reduce(start, Removed{ID: "p1"}))
	assert.Empty(t, Reduce(start, Reset{}))
	assert.Equal(t, []string{"p1"}, ids(start), "input never modified")
}
