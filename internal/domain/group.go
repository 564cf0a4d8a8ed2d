package domain

import "time"

// Role is a member's role inside a group
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Group is a private circle of users sharing their games
type Group struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsPrivate   bool            `json:"isPrivate"`
	Members     map[string]Role `json:"members"`
	InviteCode  string          `json:"inviteCode,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// AdminCount returns the number of admins in the group
func (g *Group) AdminCount() int {
	n := 0
	for _, role := range g.Members {
		if role == RoleAdmin {
			n++
		}
	}
	return n
}

// CreateGroupRequest is the body of a group creation request
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

// GameCopy is a physical copy of a catalog game owned by a user
type GameCopy struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	GameID     string    `json:"gameId"`
	Name       string    `json:"name"`
	ThumbURL   string    `json:"thumbUrl"`
	Year       int       `json:"yearPublished,omitempty"`
	MinPlayers int       `json:"minPlayers"`
	MaxPlayers int       `json:"maxPlayers"`
	Available  bool      `json:"available"`
	AddedAt    time.Time `json:"addedAt"`
}

// AddCopyRequest is the body of a library add request
type AddCopyRequest struct {
	GameID string `json:"gameId" binding:"required"`
}

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanRequested LoanStatus = "requested"
	LoanActive    LoanStatus = "active"
	LoanReturned  LoanStatus = "returned"
	LoanDeclined  LoanStatus = "declined"
)

// Open reports whether the loan still blocks the copy
func (s LoanStatus) Open() bool {
	return s == LoanRequested || s == LoanActive
}

// Loan records one borrowing of a copy
type Loan struct {
	ID         string     `json:"id"`
	CopyID     string     `json:"copyId"`
	GameName   string     `json:"gameName"`
	LenderID   string     `json:"lenderId"`
	BorrowerID string     `json:"borrowerId"`
	Status     LoanStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
}
