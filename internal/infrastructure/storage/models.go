package storage

import (
	"time"

	"github.com/gameshelf/backend/internal/domain"
)

type groupModel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	IsPrivate   bool
	InviteCode  string `gorm:"type:varchar(16);index:idx_invite_code"`
	CreatedBy   string `gorm:"type:varchar(128)"`
	CreatedAt   time.Time
}

func (groupModel) TableName() string { return "shelf_groups" }

type memberModel struct {
	GroupID  string `gorm:"primaryKey;type:varchar(36)"`
	MemberID string `gorm:"primaryKey;type:varchar(128);index:idx_member"`
	Role     string `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time
}

func (memberModel) TableName() string { return "group_members" }

type copyModel struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	OwnerID    string `gorm:"type:varchar(128);index:idx_owner"`
	GameID     string `gorm:"type:varchar(32);index:idx_game"`
	Name       string `gorm:"type:varchar(255)"`
	ThumbURL   string `gorm:"type:varchar(512)"`
	Year       int
	MinPlayers int
	MaxPlayers int
	AddedAt    time.Time
}

func (copyModel) TableName() string { return "game_copies" }

type loanModel struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	CopyID     string `gorm:"type:varchar(36);index:idx_loan_copy"`
	GameName   string `gorm:"type:varchar(255)"`
	LenderID   string `gorm:"type:varchar(128);index:idx_lender"`
	BorrowerID string `gorm:"type:varchar(128);index:idx_borrower"`
	Status     string `gorm:"type:varchar(16);index:idx_loan_status"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ReturnedAt *time.Time
}

func (loanModel) TableName() string { return "loans" }

var openLoanStatuses = []string{string(domain.LoanRequested), string(domain.LoanActive)}

func (m *groupModel) toDomain(members []memberModel) *domain.Group {
	g := &domain.Group{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		IsPrivate:   m.IsPrivate,
		Members:     make(map[string]domain.Role, len(members)),
		InviteCode:  m.InviteCode,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
	for _, mm := range members {
		if mm.GroupID == m.ID {
			g.Members[mm.MemberID] = domain.Role(mm.Role)
		}
	}
	return g
}

func copyFromDomain(c *domain.GameCopy) *copyModel {
	return &copyModel{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		GameID:     c.GameID,
		Name:       c.Name,
		ThumbURL:   c.ThumbURL,
		Year:       c.Year,
		MinPlayers: c.MinPlayers,
		MaxPlayers: c.MaxPlayers,
		AddedAt:    c.AddedAt,
	}
}

func (m *copyModel) toDomain(available bool) domain.GameCopy {
	return domain.GameCopy{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		GameID:     m.GameID,
		Name:       m.Name,
		ThumbURL:   m.ThumbURL,
		Year:       m.Year,
		MinPlayers: m.MinPlayers,
		MaxPlayers: m.MaxPlayers,
		Available:  available,
		AddedAt:    m.AddedAt,
	}
}

func loanFromDomain(l *domain.Loan) *loanModel {
	return &loanModel{
		ID:         l.ID,
		CopyID:     l.CopyID,
		GameName:   l.GameName,
		LenderID:   l.LenderID,
		BorrowerID: l.BorrowerID,
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
		ReturnedAt: l.ReturnedAt,
	}
}

func (m *loanModel) toDomain() domain.Loan {
	return domain.Loan{
		ID:         m.ID,
		CopyID:     m.CopyID,
		GameName:   m.GameName,
		LenderID:   m.LenderID,
		BorrowerID: m.BorrowerID,
		Status:     domain.LoanStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		ReturnedAt: m.ReturnedAt,
	}
}
