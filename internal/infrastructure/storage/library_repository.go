package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryRepository implements domain.LibraryRepository on gorm.
// A copy is available when it has no requested or active loan.
type LibraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository creates a library repository
func NewLibraryRepository(db *DB) *LibraryRepository {
	return &LibraryRepository{db: db.DB}
}

func (r *LibraryRepository) AddCopy(ctx context.Context, gameCopy *domain.GameCopy) error {
	if err := r.db.WithContext(ctx).Create(copyFromDomain(gameCopy)).Error; err != nil {
		return fmt.Errorf("creating copy: %w", err)
	}
	return nil
}

func (r *LibraryRepository) GetCopy(ctx context.Context, id string) (*domain.GameCopy, error) {
	var model copyModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCopyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying copy: %w", err)
	}

	lent, err := r.lentCopies(ctx, []string{model.ID})
	if err != nil {
		return nil, err
	}
	gameCopy := model.toDomain(!lent[model.ID])
	return &gameCopy, nil
}

func (r *LibraryRepository) ListCopiesByOwners(ctx context.Context, ownerIDs []string) ([]domain.GameCopy, error) {
	if len(ownerIDs) == 0 {
		return []domain.GameCopy{}, nil
	}

	var models []copyModel
	err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("name ASC, added_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing copies: %w", err)
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	lent, err := r.lentCopies(ctx, ids)
	if err != nil {
		return nil, err
	}

	copies := make([]domain.GameCopy, len(models))
	for i := range models {
		copies[i] = models[i].toDomain(!lent[models[i].ID])
	}
	return copies, nil
}

// DeleteCopy removes a copy unless it has a requested or active loan
func (r *LibraryRepository) DeleteCopy(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCopy(tx, id); err != nil {
			return err
		}
		if err := ensureNoOpenLoan(tx, id); err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&copyModel{})
		if res.Error != nil {
			return fmt.Errorf("deleting copy: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrCopyNotFound
		}
		return nil
	})
}

// CreateLoan inserts a loan unless the copy already has a requested or active one.
// The copy row is locked for the duration so concurrent requests serialize.
func (r *LibraryRepository) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCopy(tx, loan.CopyID); err != nil {
			return err
		}
		if err := ensureNoOpenLoan(tx, loan.CopyID); err != nil {
			return err
		}

		if err := tx.Create(loanFromDomain(loan)).Error; err != nil {
			return fmt.Errorf("creating loan: %w", err)
		}
		return nil
	})
}

func (r *LibraryRepository) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	var model loanModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying loan: %w", err)
	}
	loan := model.toDomain()
	return &loan, nil
}

// UpdateLoan writes the loan's new status if it is still in status from
func (r *LibraryRepository) UpdateLoan(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error {
	res := r.db.WithContext(ctx).Model(&loanModel{}).
		Where("id = ? AND status = ?", loan.ID, string(from)).
		Updates(map[string]interface{}{
			"status":      string(loan.Status),
			"updated_at":  loan.UpdatedAt,
			"returned_at": loan.ReturnedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("updating loan: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	current, err := r.GetLoan(ctx, loan.ID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: loan is %s", domain.ErrInvalidLoanState, current.Status)
}

// ListLoansForUser returns loans where the user lends or borrows, newest first
func (r *LibraryRepository) ListLoansForUser(ctx context.Context, userID string) ([]domain.Loan, error) {
	var models []loanModel
	err := r.db.WithContext(ctx).
		Where("lender_id = ? OR borrower_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}

	loans := make([]domain.Loan, len(models))
	for i := range models {
		loans[i] = models[i].toDomain()
	}
	return loans, nil
}

// lentCopies returns the subset of copy ids that have an open loan
func (r *LibraryRepository) lentCopies(ctx context.Context, copyIDs []string) (map[string]bool, error) {
	lent := make(map[string]bool)
	if len(copyIDs) == 0 {
		return lent, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&loanModel{}).
		Where("copy_id IN ? AND status IN ?", copyIDs, openLoanStatuses).
		Distinct().
		Pluck("copy_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("querying open loans: %w", err)
	}
	for _, id := range ids {
		lent[id] = true
	}
	return lent, nil
}

// lockCopy takes a row lock on the copy. sqlite ignores the locking clause and
// relies on its single connection instead.
func lockCopy(tx *gorm.DB, copyID string) error {
	var model copyModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", copyID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrCopyNotFound
	}
	if err != nil {
		return fmt.Errorf("locking copy: %w", err)
	}
	return nil
}

func ensureNoOpenLoan(tx *gorm.DB, copyID string) error {
	var open int64
	err := tx.Model(&loanModel{}).
		Where("copy_id = ? AND status IN ?", copyID, openLoanStatuses).
		Count(&open).Error
	if err != nil {
		return fmt.Errorf("querying open loan: %w", err)
	}
	if open > 0 {
		return domain.ErrCopyUnavailable
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
