package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	setError error
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheRepository) Close() error { return nil }

func (m *MockCacheRepository) has(key string) bool {
	ok, _ := m.Exists(context.Background(), key)
	return ok
}

// MockCatalogSource is a mock implementation of domain.CatalogSource
type MockCatalogSource struct {
	mu          sync.Mutex
	searchIDs   map[string][]string
	searchError error
	games       map[string]*domain.BoardGame
	fetchErrors map[string]error
	fetchDelay  time.Duration

	searchCalls atomic.Int32
	fetchCalls  atomic.Int32
}

func NewMockCatalogSource() *MockCatalogSource {
	return &MockCatalogSource{
		searchIDs:   make(map[string][]string),
		games:       make(map[string]*domain.BoardGame),
		fetchErrors: make(map[string]error),
	}
}

func (m *MockCatalogSource) addGame(id string, rank int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[id] = &domain.BoardGame{ID: id, Name: "Game " + id, Rank: rank}
}

func (m *MockCatalogSource) SearchIDs(ctx context.Context, query string) ([]string, error) {
	m.searchCalls.Add(1)
	if m.searchError != nil {
		return nil, m.searchError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchIDs[query], nil
}

func (m *MockCatalogSource) FetchGame(ctx context.Context, id string) (*domain.BoardGame, error) {
	m.fetchCalls.Add(1)
	if m.fetchDelay > 0 {
		time.Sleep(m.fetchDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.fetchErrors[id]; ok {
		return nil, err
	}
	game, ok := m.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	clone := *game
	return &clone, nil
}

func newCatalogService(cache domain.CacheRepository, source domain.CatalogSource) *CatalogService {
	return NewCatalogService(cache, source, CatalogServiceConfig{
		PageSize:          10,
		MaxPages:          3,
		DetailConcurrency: 4,
	})
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d", i+1)
	}
	return out
}

func rankOf(items []domain.BoardGame) []int {
	out := make([]int, len(items))
	for i, g := range items {
		out[i] = g.Rank
	}
	return out
}

func TestSortByRank(t *testing.T) {
	games := []domain.BoardGame{
		{ID: "a", Rank: 0},
		{ID: "b", Rank: 374},
		{ID: "c", Rank: 0},
		{ID: "d", Rank: 100},
	}

	SortByRank(games)

	assert.Equal(t, []int{100, 374, 0, 0}, rankOf(games))
	assert.Equal(t, "a", games[2].ID)
	assert.Equal(t, "c", games[3].ID)
}

func TestSearchGames_SortsByRank(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["catan"] = []string{"1", "2", "3", "4"}
	source.addGame("1", 0)
	source.addGame("2", 374)
	source.addGame("3", 0)
	source.addGame("4", 100)

	service := newCatalogService(NewMockCacheRepository(), source)

	page, err := service.SearchGames(context.Background(), "catan", 1)

	require.NoError(t, err)
	assert.Equal(t, []int{100, 374, 0, 0}, rankOf(page.Items))
	assert.Equal(t, "1", page.Items[2].ID)
	assert.Equal(t, "3", page.Items[3].ID)
	assert.False(t, page.HasMore)
}

func TestSearchGames_CachesResult(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["Catan"] = []string{"13"}
	source.addGame("13", 500)
	cache := NewMockCacheRepository()

	service := newCatalogService(cache, source)
	ctx := context.Background()

	first, err := service.SearchGames(ctx, "Catan", 1)
	require.NoError(t, err)
	second, err := service.SearchGames(ctx, "Catan", 1)
	require.NoError(t, err)

	assert.Equal(t, int32(1), source.searchCalls.Load())
	assert.Equal(t, int32(1), source.fetchCalls.Load())
	assert.Equal(t, first, second)
	assert.True(t, cache.has("search:catan:1"))
	assert.True(t, cache.has("game:13"))
}

func TestSearchGames_HasMore(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["big"] = ids(45)
	for _, id := range ids(45) {
		source.addGame(id, 0)
	}

	service := newCatalogService(NewMockCacheRepository(), source)
	ctx := context.Background()

	tests := []struct {
		page    int
		items   int
		hasMore bool
	}{
		{1, 10, true},
		{2, 10, true},
		{3, 10, false}, // page >= MaxPages
		{4, 10, false},
		{5, 5, false},
		{6, 0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			page, err := service.SearchGames(ctx, "big", tt.page)
			require.NoError(t, err)
			assert.Len(t, page.Items, tt.items)
			assert.Equal(t, tt.hasMore, page.HasMore)
		})
	}
}

func TestSearchGames_HasMore_LastPartialPage(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["small"] = ids(12)
	for _, id := range ids(12) {
		source.addGame(id, 0)
	}

	service := newCatalogService(NewMockCacheRepository(), source)

	page, err := service.SearchGames(context.Background(), "small", 2)

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
}

func TestSearchGames_DropsFailedDetails(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["azul"] = []string{"1", "2", "3"}
	source.addGame("1", 10)
	source.addGame("3", 5)
	source.fetchErrors["2"] = &domain.UpstreamError{Provider: "bgg", StatusCode: 500, Transient: true}

	service := newCatalogService(NewMockCacheRepository(), source)

	page, err := service.SearchGames(context.Background(), "azul", 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "3", page.Items[0].ID)
	assert.Equal(t, "1", page.Items[1].ID)
}

func TestSearchGames_EmptyQuery(t *testing.T) {
	source := NewMockCatalogSource()
	service := newCatalogService(NewMockCacheRepository(), source)

	page, err := service.SearchGames(context.Background(), "   ", 1)

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Equal(t, int32(0), source.searchCalls.Load())
}

func TestSearchGames_NoResultsNotCached(t *testing.T) {
	source := NewMockCatalogSource()
	cache := NewMockCacheRepository()
	service := newCatalogService(cache, source)

	page, err := service.SearchGames(context.Background(), "nothing", 1)

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, cache.has("search:nothing:1"))
}

func TestSearchGames_PageBelowOne(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["catan"] = []string{"13"}
	source.addGame("13", 1)
	cache := NewMockCacheRepository()
	service := newCatalogService(cache, source)

	page, err := service.SearchGames(context.Background(), "catan", 0)

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.True(t, cache.has("search:catan:1"))
}

func TestSearchGames_UpstreamFailure(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchError = &domain.UpstreamError{Provider: "bgg", StatusCode: 503, Transient: true}
	service := newCatalogService(NewMockCacheRepository(), source)

	page, err := service.SearchGames(context.Background(), "catan", 1)

	assert.Nil(t, page)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.True(t, domain.IsTransient(err))
}

func TestSearchGames_CacheUnavailable(t *testing.T) {
	source := NewMockCatalogSource()
	source.searchIDs["catan"] = []string{"13"}
	source.addGame("13", 1)
	cache := NewMockCacheRepository()
	cache.getError = domain.ErrCacheUnavailable
	cache.setError = domain.ErrCacheUnavailable

	service := newCatalogService(cache, source)

	page, err := service.SearchGames(context.Background(), "catan", 1)

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestGetGame_CacheHit(t *testing.T) {
	cache := NewMockCacheRepository()
	raw, err := json.Marshal(domain.BoardGame{ID: "13", Name: "CATAN", Rank: 500})
	require.NoError(t, err)
	cache.data["game:13"] = raw

	source := NewMockCatalogSource()
	service := newCatalogService(cache, source)

	game, err := service.GetGame(context.Background(), "13")

	require.NoError(t, err)
	assert.Equal(t, "CATAN", game.Name)
	assert.Equal(t, int32(0), source.fetchCalls.Load())
}

func TestGetGame_CorruptCacheEntry(t *testing.T) {
	cache := NewMockCacheRepository()
	cache.data["game:13"] = []byte("{not json")

	source := NewMockCatalogSource()
	source.addGame("13", 1)
	service := newCatalogService(cache, source)

	game, err := service.GetGame(context.Background(), "13")

	require.NoError(t, err)
	assert.Equal(t, "13", game.ID)
	assert.Equal(t, int32(1), source.fetchCalls.Load())
}

func TestGetGame_NotFoundIsRemembered(t *testing.T) {
	source := NewMockCatalogSource()
	service := newCatalogService(NewMockCacheRepository(), source)
	ctx := context.Background()

	_, err := service.GetGame(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	_, err = service.GetGame(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	assert.Equal(t, int32(1), source.fetchCalls.Load())
}

func TestGetGame_TransientErrorNotRemembered(t *testing.T) {
	source := NewMockCatalogSource()
	source.fetchErrors["13"] = &domain.UpstreamError{Provider: "bgg", StatusCode: 202, Transient: true}
	service := newCatalogService(NewMockCacheRepository(), source)
	ctx := context.Background()

	_, err := service.GetGame(ctx, "13")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))

	source.mu.Lock()
	delete(source.fetchErrors, "13")
	source.mu.Unlock()
	source.addGame("13", 1)

	game, err := service.GetGame(ctx, "13")
	require.NoError(t, err)
	assert.Equal(t, "13", game.ID)
}

func TestGetGame_EmptyID(t *testing.T) {
	service := newCatalogService(NewMockCacheRepository(), NewMockCatalogSource())

	_, err := service.GetGame(context.Background(), " ")

	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestGetGame_CollapsesConcurrentLookups(t *testing.T) {
	source := NewMockCatalogSource()
	source.addGame("13", 1)
	source.fetchDelay = 50 * time.Millisecond
	service := newCatalogService(NewMockCacheRepository(), source)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			game, err := service.GetGame(context.Background(), "13")
			assert.NoError(t, err)
			assert.Equal(t, "13", game.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), source.fetchCalls.Load())
}

// gatedCatalogSource blocks FetchGame until release is closed
type gatedCatalogSource struct {
	*MockCatalogSource
	started chan string
	release chan struct{}
}

func (g *gatedCatalogSource) FetchGame(ctx context.Context, id string) (*domain.BoardGame, error) {
	g.started <- id
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.MockCatalogSource.FetchGame(ctx, id)
}

func TestSearchGames_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	mock := NewMockCatalogSource()
	mock.addGame("1", 10)
	mock.addGame("2", 20)
	mock.searchIDs["a"] = []string{"1"}
	mock.searchIDs["b"] = []string{"1", "2"}
	source := &gatedCatalogSource{MockCatalogSource: mock, started: make(chan string, 4), release: make(chan struct{})}
	cache := NewMockCacheRepository()
	service := newCatalogService(cache, source)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := service.SearchGames(ctxA, "a", 1)
		errA <- err
	}()
	require.Equal(t, "1", <-source.started)

	resultB := make(chan *domain.SearchPage, 1)
	go func() {
		page, err := service.SearchGames(context.Background(), "b", 1)
		assert.NoError(t, err)
		resultB <- page
	}()
	require.Equal(t, "2", <-source.started)
	// let b join the in-flight lookup of "1"
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)
	close(source.release)

	page := <-resultB
	require.NotNil(t, page)
	assert.Len(t, page.Items, 2)

	cached, err := service.SearchGames(context.Background(), "b", 1)
	require.NoError(t, err)
	assert.Len(t, cached.Items, 2)
	assert.False(t, cache.has(searchCacheKey("a", 1)))
}

func TestSearchGames_InterruptedPageNotCached(t *testing.T) {
	mock := NewMockCatalogSource()
	mock.addGame("1", 10)
	mock.searchIDs["a"] = []string{"1"}
	mock.fetchErrors["1"] = context.DeadlineExceeded
	cache := NewMockCacheRepository()
	service := newCatalogService(cache, mock)

	page, err := service.SearchGames(context.Background(), "a", 1)

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, cache.has(searchCacheKey("a", 1)))
}
