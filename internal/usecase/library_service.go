package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/google/uuid"
)

// LibraryService manages owned game copies and loans between group members
type LibraryService struct {
	library domain.LibraryRepository
	groups  domain.GroupRepository
	catalog domain.GameSearcher
	now     func() time.Time
}

// NewLibraryService creates a new library service
func NewLibraryService(
	library domain.LibraryRepository,
	groups domain.GroupRepository,
	catalog domain.GameSearcher,
) *LibraryService {
	return &LibraryService{
		library: library,
		groups:  groups,
		catalog: catalog,
		now:     time.Now,
	}
}

// AddCopy resolves a catalog id and records a copy owned by the caller
func (s *LibraryService) AddCopy(ctx context.Context, ownerID, gameID string) (*domain.GameCopy, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, domain.ErrInvalidRequest
	}

	game, err := s.catalog.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("resolve game %s: %w", gameID, err)
	}

	gameCopy := &domain.GameCopy{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		GameID:     game.ID,
		Name:       game.Name,
		ThumbURL:   game.ThumbURL,
		MinPlayers: game.MinPlayers,
		MaxPlayers: game.MaxPlayers,
		Available:  true,
		AddedAt:    s.now().UTC(),
	}
	if game.YearPublished != nil {
		gameCopy.Year = *game.YearPublished
	}

	if err := s.library.AddCopy(ctx, gameCopy); err != nil {
		return nil, fmt.Errorf("add copy: %w", err)
	}

	logger.Component("library").Info().Str("copy_id", gameCopy.ID).Str("game_id", game.ID).Str("owner_id", ownerID).Msg("copy added")
	return gameCopy, nil
}

// ListCopies returns the caller's own copies
func (s *LibraryService) ListCopies(ctx context.Context, ownerID string) ([]domain.GameCopy, error) {
	return s.listCopies(ctx, []string{ownerID})
}

// GroupLibrary returns every copy owned by members of a group the caller belongs to
func (s *LibraryService) GroupLibrary(ctx context.Context, userID, groupID string) ([]domain.GameCopy, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := group.Members[userID]; !ok {
		return nil, domain.ErrGroupNotFound
	}

	owners := make([]string, 0, len(group.Members))
	for id := range group.Members {
		owners = append(owners, id)
	}
	return s.listCopies(ctx, owners)
}

// RemoveCopy deletes one of the caller's copies that is not requested or lent out
func (s *LibraryService) RemoveCopy(ctx context.Context, ownerID, copyID string) error {
	gameCopy, err := s.library.GetCopy(ctx, copyID)
	if err != nil {
		return err
	}
	if gameCopy.OwnerID != ownerID {
		return fmt.Errorf("%w: copy belongs to another user", domain.ErrForbidden)
	}

	return s.library.DeleteCopy(ctx, copyID)
}

// RequestLoan asks to borrow a copy from a user the caller shares a group with
func (s *LibraryService) RequestLoan(ctx context.Context, borrowerID, copyID string) (*domain.Loan, error) {
	gameCopy, err := s.library.GetCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if gameCopy.OwnerID == borrowerID {
		return nil, fmt.Errorf("%w: cannot borrow your own copy", domain.ErrInvalidRequest)
	}

	shared, err := s.groups.ShareGroup(ctx, borrowerID, gameCopy.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !shared {
		return nil, fmt.Errorf("%w: owner is not in any of your groups", domain.ErrForbidden)
	}

	now := s.now().UTC()
	loan := &domain.Loan{
		ID:         uuid.NewString(),
		CopyID:     gameCopy.ID,
		GameName:   gameCopy.Name,
		LenderID:   gameCopy.OwnerID,
		BorrowerID: borrowerID,
		Status:     domain.LoanRequested,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.library.CreateLoan(ctx, loan); err != nil {
		if errors.Is(err, domain.ErrCopyUnavailable) || errors.Is(err, domain.ErrCopyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create loan: %w", err)
	}

	logger.Component("library").Info().Str("loan_id", loan.ID).Str("copy_id", copyID).Str("borrower_id", borrowerID).Msg("loan requested")
	return loan, nil
}

// ListLoans returns loans where the caller is lender or borrower
func (s *LibraryService) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	loans, err := s.library.ListLoansForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	if loans == nil {
		loans = []domain.Loan{}
	}
	return loans, nil
}

// ApproveLoan moves a requested loan to active. Lender only.
func (s *LibraryService) ApproveLoan(ctx context.Context, userID, loanID string) (*domain.Loan, error) {
	return s.transition(ctx, userID, loanID, domain.LoanRequested, domain.LoanActive, false)
}

// DeclineLoan moves a requested loan to declined. Lender only.
func (s *LibraryService) DeclineLoan(ctx context.Context, userID, loanID string) (*domain.Loan, error) {
	return s.transition(ctx, userID, loanID, domain.LoanRequested, domain.LoanDeclined, false)
}

// ReturnLoan moves an active loan to returned. Lender or borrower.
func (s *LibraryService) ReturnLoan(ctx context.Context, userID, loanID string) (*domain.Loan, error) {
	return s.transition(ctx, userID, loanID, domain.LoanActive, domain.LoanReturned, true)
}

func (s *LibraryService) transition(
	ctx context.Context,
	userID, loanID string,
	from, to domain.LoanStatus,
	borrowerAllowed bool,
) (*domain.Loan, error) {
	loan, err := s.library.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	isLender := loan.LenderID == userID
	isBorrower := loan.BorrowerID == userID
	if !isLender && !(borrowerAllowed && isBorrower) {
		if isBorrower {
			return nil, fmt.Errorf("%w: only the lender can do this", domain.ErrForbidden)
		}
		return nil, domain.ErrLoanNotFound
	}

	if loan.Status != from {
		return nil, fmt.Errorf("%w: loan is %s", domain.ErrInvalidLoanState, loan.Status)
	}

	now := s.now().UTC()
	loan.Status = to
	loan.UpdatedAt = now
	if to == domain.LoanReturned {
		loan.ReturnedAt = &now
	}

	if err := s.library.UpdateLoan(ctx, loan, from); err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}

	logger.Component("library").Info().Str("loan_id", loan.ID).Str("status", string(to)).Msg("loan updated")
	return loan, nil
}

func (s *LibraryService) listCopies(ctx context.Context, owners []string) ([]domain.GameCopy, error) {
	copies, err := s.library.ListCopiesByOwners(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}
	if copies == nil {
		copies = []domain.GameCopy{}
	}
	return copies, nil
}
