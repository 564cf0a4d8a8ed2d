package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes; a ttl of 0 keeps the entry until evicted.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// CatalogSource defines the interface for the BoardGameGeek XML API
type CatalogSource interface {
	SearchIDs(ctx context.Context, query string) ([]string, error)
	FetchGame(ctx context.Context, id string) (*BoardGame, error)
}

// TextAnnotator runs text detection on a base64 encoded image
type TextAnnotator interface {
	DetectText(ctx context.Context, content string) ([]TextAnnotation, error)
}

// GameSearcher resolves titles against the catalog
type GameSearcher interface {
	SearchGames(ctx context.Context, query string, page int) (*SearchPage, error)
	GetGame(ctx context.Context, id string) (*BoardGame, error)
}

// GroupRepository persists groups and memberships
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByInviteCode(ctx context.Context, code string) (*Group, error)
	ListForMember(ctx context.Context, memberID string) ([]Group, error)
	AddMember(ctx context.Context, groupID, memberID string, role Role) error
	RemoveMember(ctx context.Context, groupID, memberID string) error
	SetInviteCode(ctx context.Context, groupID, code string) error
	Delete(ctx context.Context, id string) error
	ShareGroup(ctx context.Context, a, b string) (bool, error)
}

// LibraryRepository persists owned game copies and their loans
type LibraryRepository interface {
	AddCopy(ctx context.Context, gameCopy *GameCopy) error
	GetCopy(ctx context.Context, id string) (*GameCopy, error)
	ListCopiesByOwners(ctx context.Context, ownerIDs []string) ([]GameCopy, error)
	// DeleteCopy and CreateLoan fail with ErrCopyUnavailable while the copy
	// has a requested or active loan, checked atomically with the write.
	DeleteCopy(ctx context.Context, id string) error
	CreateLoan(ctx context.Context, loan *Loan) error
	GetLoan(ctx context.Context, id string) (*Loan, error)
	// UpdateLoan fails with ErrInvalidLoanState unless the stored status is from
	UpdateLoan(ctx context.Context, loan *Loan, from LoanStatus) error
	ListLoansForUser(ctx context.Context, userID string) ([]Loan, error)
}
