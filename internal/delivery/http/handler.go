package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Services groups the usecases served over HTTP. A nil service makes its
// endpoints answer 501.
type Services struct {
	Vision  *usecase.VisionService
	Catalog *usecase.CatalogService
	Matcher *usecase.ShelfMatcher
	Groups  *usecase.GroupService
	Library *usecase.LibraryService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	vision  *usecase.VisionService
	catalog *usecase.CatalogService
	matcher *usecase.ShelfMatcher
	groups  *usecase.GroupService
	library *usecase.LibraryService
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services) *Handler {
	return &Handler{
		vision:  services.Vision,
		catalog: services.Catalog,
		matcher: services.Matcher,
		groups:  services.Groups,
		library: services.Library,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "gameshelf-backend",
		"version": Version,
	})
}

// AnalyzeImage handles POST /api/vision/analyze. Every failure, including a
// malformed body, is a 500 with a fixed message.
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if h.vision == nil {
		notConfigured(c, "Vision")
		return
	}

	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze image"})
		return
	}

	games, err := h.vision.AnalyzeImage(c.Request.Context(), req.Image)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze image"})
		return
	}

	c.JSON(http.StatusOK, domain.AnalyzeResponse{DetectedGames: games})
}

// MatchShelf handles POST /api/shelf/match
func (h *Handler) MatchShelf(c *gin.Context) {
	if h.matcher == nil {
		notConfigured(c, "Shelf matching")
		return
	}

	var req domain.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	matches, err := h.matcher.MatchShelf(c.Request.Context(), req.DetectedGames)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// ScanShelf handles POST /api/shelf/scan: analyze an image, then match every detection
func (h *Handler) ScanShelf(c *gin.Context) {
	if h.vision == nil || h.matcher == nil {
		notConfigured(c, "Shelf scanning")
		return
	}

	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	detected, err := h.vision.AnalyzeImage(ctx, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	matches, err := h.matcher.MatchShelf(ctx, detected)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.ScanResponse{DetectedGames: detected, Matches: matches})
}

// SearchGames handles GET /api/games/search?q=&page=
func (h *Handler) SearchGames(c *gin.Context) {
	if h.catalog == nil {
		notConfigured(c, "Catalog")
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
			return
		}
		page = n
	}

	result, err := h.catalog.SearchGames(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGame handles GET /api/games/:id
func (h *Handler) GetGame(c *gin.Context) {
	if h.catalog == nil {
		notConfigured(c, "Catalog")
		return
	}

	game, err := h.catalog.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

var (
	badRequestErrors = []error{domain.ErrInvalidRequest, domain.ErrInvalidImage}
	notFoundErrors   = []error{
		domain.ErrGameNotFound,
		domain.ErrGroupNotFound,
		domain.ErrInviteNotFound,
		domain.ErrCopyNotFound,
		domain.ErrLoanNotFound,
	}
	conflictErrors = []error{
		domain.ErrAlreadyMember,
		domain.ErrLastAdmin,
		domain.ErrCopyUnavailable,
		domain.ErrInvalidLoanState,
	}
)

// respondError maps a usecase error onto a status code and JSON body
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	if target := firstMatch(err, badRequestErrors); target != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
		return
	}
	if errors.Is(err, domain.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
		return
	}
	if target := firstMatch(err, notFoundErrors); target != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": target.Error()})
		return
	}
	if target := firstMatch(err, conflictErrors); target != nil {
		c.JSON(http.StatusConflict, gin.H{"error": target.Error()})
		return
	}

	if errors.Is(err, domain.ErrUpstreamFailure) {
		if domain.IsTransient(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":     "Upstream service temporarily unavailable",
				"retryable": true,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service request failed"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// respondBindError reports a request body that could not be decoded
func respondBindError(c *gin.Context, err error) {
	_ = c.Error(err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": what + " service not configured"})
}

func firstMatch(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
