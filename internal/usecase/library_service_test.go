package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLibraryRepository is an in-memory domain.LibraryRepository
type MockLibraryRepository struct {
	mu     sync.Mutex
	copies map[string]domain.GameCopy
	loans  map[string]domain.Loan
}

func NewMockLibraryRepository() *MockLibraryRepository {
	return &MockLibraryRepository{
		copies: make(map[string]domain.GameCopy),
		loans:  make(map[string]domain.Loan),
	}
}

func (m *MockLibraryRepository) AddCopy(ctx context.Context, gameCopy *domain.GameCopy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copies[gameCopy.ID] = *gameCopy
	return nil
}

func (m *MockLibraryRepository) GetCopy(ctx context.Context, id string) (*domain.GameCopy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.copies[id]
	if !ok {
		return nil, domain.ErrCopyNotFound
	}
	return &c, nil
}

func (m *MockLibraryRepository) ListCopiesByOwners(ctx context.Context, ownerIDs []string) ([]domain.GameCopy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GameCopy
	for _, c := range m.copies {
		for _, owner := range ownerIDs {
			if c.OwnerID == owner {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *MockLibraryRepository) DeleteCopy(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.copies[id]; !ok {
		return domain.ErrCopyNotFound
	}
	if m.hasOpenLoan(id) {
		return domain.ErrCopyUnavailable
	}
	delete(m.copies, id)
	return nil
}

func (m *MockLibraryRepository) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.copies[loan.CopyID]; !ok {
		return domain.ErrCopyNotFound
	}
	if m.hasOpenLoan(loan.CopyID) {
		return domain.ErrCopyUnavailable
	}
	m.loans[loan.ID] = *loan
	return nil
}

func (m *MockLibraryRepository) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return &l, nil
}

func (m *MockLibraryRepository) UpdateLoan(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.loans[loan.ID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	if stored.Status != from {
		return domain.ErrInvalidLoanState
	}
	m.loans[loan.ID] = *loan
	return nil
}

func (m *MockLibraryRepository) hasOpenLoan(copyID string) bool {
	for _, l := range m.loans {
		if l.CopyID == copyID && l.Status.Open() {
			return true
		}
	}
	return false
}

func (m *MockLibraryRepository) ListLoansForUser(ctx context.Context, userID string) ([]domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Loan
	for _, l := range m.loans {
		if l.LenderID == userID || l.BorrowerID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

type libraryFixture struct {
	service *LibraryService
	library *MockLibraryRepository
	groups  *MockGroupRepository
	groupID string
}

// newLibraryFixture sets up alice and bob in one group and carol outside it
func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()

	groups := NewMockGroupRepository()
	require.NoError(t, groups.Create(context.Background(), &domain.Group{
		ID:      "g1",
		Name:    "Friday Night",
		Members: map[string]domain.Role{"alice": domain.RoleAdmin, "bob": domain.RoleMember},
	}))

	catalog := &catalogStub{games: map[string]*domain.BoardGame{}}
	year := 1995
	catalog.games["13"] = &domain.BoardGame{ID: "13", Name: "CATAN", YearPublished: &year, MinPlayers: 3, MaxPlayers: 4, ThumbURL: "t.jpg"}

	library := NewMockLibraryRepository()
	service := NewLibraryService(library, groups, catalog)
	service.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &libraryFixture{service: service, library: library, groups: groups, groupID: "g1"}
}

type catalogStub struct {
	games map[string]*domain.BoardGame
}

func (c *catalogStub) SearchGames(ctx context.Context, query string, page int) (*domain.SearchPage, error) {
	return &domain.SearchPage{Items: []domain.BoardGame{}}, nil
}

func (c *catalogStub) GetGame(ctx context.Context, id string) (*domain.BoardGame, error) {
	game, ok := c.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

func TestAddCopy(t *testing.T) {
	f := newLibraryFixture(t)

	gameCopy, err := f.service.AddCopy(context.Background(), "alice", "13")

	require.NoError(t, err)
	assert.Equal(t, "alice", gameCopy.OwnerID)
	assert.Equal(t, "CATAN", gameCopy.Name)
	assert.Equal(t, 1995, gameCopy.Year)
	assert.Equal(t, 3, gameCopy.MinPlayers)
	assert.True(t, gameCopy.Available)

	copies, err := f.service.ListCopies(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, copies, 1)
}

func TestAddCopy_UnknownGame(t *testing.T) {
	f := newLibraryFixture(t)

	_, err := f.service.AddCopy(context.Background(), "alice", "404")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	_, err = f.service.AddCopy(context.Background(), "alice", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGroupLibrary(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	_, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)
	_, err = f.service.AddCopy(ctx, "bob", "13")
	require.NoError(t, err)
	_, err = f.service.AddCopy(ctx, "carol", "13")
	require.NoError(t, err)

	copies, err := f.service.GroupLibrary(ctx, "bob", f.groupID)
	require.NoError(t, err)
	assert.Len(t, copies, 2)

	_, err = f.service.GroupLibrary(ctx, "carol", f.groupID)
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestLoanLifecycle(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	gameCopy, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)

	loan, err := f.service.RequestLoan(ctx, "bob", gameCopy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanRequested, loan.Status)
	assert.Equal(t, "alice", loan.LenderID)
	assert.Equal(t, "CATAN", loan.GameName)

	_, err = f.service.RequestLoan(ctx, "bob", gameCopy.ID)
	assert.ErrorIs(t, err, domain.ErrCopyUnavailable)

	_, err = f.service.ApproveLoan(ctx, "bob", loan.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	approved, err := f.service.ApproveLoan(ctx, "alice", loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, approved.Status)

	err = f.service.RemoveCopy(ctx, "alice", gameCopy.ID)
	assert.ErrorIs(t, err, domain.ErrCopyUnavailable)

	returned, err := f.service.ReturnLoan(ctx, "bob", loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)

	_, err = f.service.ReturnLoan(ctx, "alice", loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidLoanState)

	loans, err := f.service.ListLoans(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, loans, 1)

	require.NoError(t, f.service.RemoveCopy(ctx, "alice", gameCopy.ID))
}

func TestDeclineLoan(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	gameCopy, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)
	loan, err := f.service.RequestLoan(ctx, "bob", gameCopy.ID)
	require.NoError(t, err)

	declined, err := f.service.DeclineLoan(ctx, "alice", loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanDeclined, declined.Status)

	_, err = f.service.ApproveLoan(ctx, "alice", loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidLoanState)

	again, err := f.service.RequestLoan(ctx, "bob", gameCopy.ID)
	require.NoError(t, err)
	assert.NotEqual(t, loan.ID, again.ID)
}

func TestRequestLoan_Rules(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	gameCopy, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)

	t.Run("own copy", func(t *testing.T) {
		_, err := f.service.RequestLoan(ctx, "alice", gameCopy.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("no shared group", func(t *testing.T) {
		_, err := f.service.RequestLoan(ctx, "carol", gameCopy.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown copy", func(t *testing.T) {
		_, err := f.service.RequestLoan(ctx, "bob", "missing")
		assert.ErrorIs(t, err, domain.ErrCopyNotFound)
	})
}

func TestLoanTransition_Stranger(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	gameCopy, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)
	loan, err := f.service.RequestLoan(ctx, "bob", gameCopy.ID)
	require.NoError(t, err)

	_, err = f.service.ApproveLoan(ctx, "carol", loan.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestRemoveCopy_NotOwner(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	gameCopy, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)

	err = f.service.RemoveCopy(ctx, "bob", gameCopy.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.service.RemoveCopy(ctx, "alice", "missing")
	assert.ErrorIs(t, err, domain.ErrCopyNotFound)
}

func TestRequestLoan_ConcurrentBorrowers(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	borrowers := []string{"bob", "dave", "erin", "frank", "grace", "heidi"}
	for _, id := range borrowers[1:] {
		require.NoError(t, f.groups.AddMember(ctx, f.groupID, id, domain.RoleMember))
	}

	gameCopy, err := f.service.AddCopy(ctx, "alice", "13")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		granted  int
		rejected int
	)
	for _, borrower := range borrowers {
		wg.Add(1)
		go func(borrower string) {
			defer wg.Done()
			_, err := f.service.RequestLoan(ctx, borrower, gameCopy.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
				return
			}
			assert.ErrorIs(t, err, domain.ErrCopyUnavailable)
			rejected++
		}(borrower)
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
	assert.Equal(t, len(borrowers)-1, rejected)
}
