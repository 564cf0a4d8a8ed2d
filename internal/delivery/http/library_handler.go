package http

import (
	"net/http"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// ListGroups handles GET /api/groups
func (h *Handler) ListGroups(c *gin.Context) {
	if h.groups == nil {
		notConfigured(c, "Group")
		return
	}

	groups, err := h.groups.ListGroups(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// CreateGroup handles POST /api/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	if h.groups == nil {
		notConfigured(c, "Group")
		return
	}

	var req domain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// GetGroup handles GET /api/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	if h.groups == nil {
		notConfigured(c, "Group")
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// CreateInvite handles POST /api/groups/:id/invites
func (h *Handler) CreateInvite(c *gin.Context) {
	if h.groups == nil {
		notConfigured(c, "Group")
		return
	}

	code, err := h.groups.CreateInvite(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inviteCode": code})
}

// JoinGroup handles POST /api/groups/join/:code
func (h *Handler) JoinGroup(c *gin.Context) {
	if h.groups == nil {
		notConfigured(c, "Group")
		return
	}

	group, err := h.groups.JoinGroup(c.Request.Context(), GetUserID(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// LeaveGroup handles DELETE /api/groups/:id/members/me
func (h *Handler) LeaveGroup(c *gin.Context) {
	if h.groups == nil {
		notConfigured(c, "Group")
		return
	}

	if err := h.groups.LeaveGroup(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GroupLibrary handles GET /api/groups/:id/library
func (h *Handler) GroupLibrary(c *gin.Context) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	copies, err := h.library.GroupLibrary(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copies": copies})
}

// AddCopy handles POST /api/library
func (h *Handler) AddCopy(c *gin.Context) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	var req domain.AddCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	gameCopy, err := h.library.AddCopy(c.Request.Context(), GetUserID(c), req.GameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gameCopy)
}

// ListLibrary handles GET /api/library
func (h *Handler) ListLibrary(c *gin.Context) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	copies, err := h.library.ListCopies(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copies": copies})
}

// RemoveCopy handles DELETE /api/library/:id
func (h *Handler) RemoveCopy(c *gin.Context) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	if err := h.library.RemoveCopy(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BorrowCopy handles POST /api/library/:id/borrow
func (h *Handler) BorrowCopy(c *gin.Context) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	loan, err := h.library.RequestLoan(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// ListLoans handles GET /api/loans
func (h *Handler) ListLoans(c *gin.Context) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	loans, err := h.library.ListLoans(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// ApproveLoan handles POST /api/loans/:id/approve
func (h *Handler) ApproveLoan(c *gin.Context) {
	h.loanAction(c, "approve")
}

// DeclineLoan handles POST /api/loans/:id/decline
func (h *Handler) DeclineLoan(c *gin.Context) {
	h.loanAction(c, "decline")
}

// ReturnLoan handles POST /api/loans/:id/return
func (h *Handler) ReturnLoan(c *gin.Context) {
	h.loanAction(c, "return")
}

func (h *Handler) loanAction(c *gin.Context, action string) {
	if h.library == nil {
		notConfigured(c, "Library")
		return
	}

	ctx := c.Request.Context()
	userID := GetUserID(c)
	loanID := c.Param("id")

	var (
		loan *domain.Loan
		err  error
	)
	switch action {
	case "approve":
		loan, err = h.library.ApproveLoan(ctx, userID, loanID)
	case "decline":
		loan, err = h.library.DeclineLoan(ctx, userID, loanID)
	default:
		loan, err = h.library.ReturnLoan(ctx, userID, loanID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}
