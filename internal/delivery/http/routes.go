package http

import (
	"github.com/gameshelf/backend/config"
	"github.com/gameshelf/backend/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, authManager *auth.Manager) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestLogger())
	router.Use(RecoveryMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/vision/analyze", handler.AnalyzeImage)

		shelf := api.Group("/shelf")
		{
			shelf.POST("/match", handler.MatchShelf)
			shelf.POST("/scan", handler.ScanShelf)
		}

		games := api.Group("/games")
		{
			games.GET("/search", handler.SearchGames)
			games.GET("/:id", handler.GetGame)
		}

		authed := api.Group("")
		authed.Use(JWTAuth(authManager))
		{
			groups := authed.Group("/groups")
			{
				groups.GET("", handler.ListGroups)
				groups.POST("", handler.CreateGroup)
				groups.POST("/join/:code", handler.JoinGroup)
				groups.GET("/:id", handler.GetGroup)
				groups.POST("/:id/invites", handler.CreateInvite)
				groups.DELETE("/:id/members/me", handler.LeaveGroup)
				groups.GET("/:id/library", handler.GroupLibrary)
			}

			library := authed.Group("/library")
			{
				library.GET("", handler.ListLibrary)
				library.POST("", handler.AddCopy)
				library.DELETE("/:id", handler.RemoveCopy)
				library.POST("/:id/borrow", handler.BorrowCopy)
			}

			loans := authed.Group("/loans")
			{
				loans.GET("", handler.ListLoans)
				loans.POST("/:id/approve", handler.ApproveLoan)
				loans.POST("/:id/decline", handler.DeclineLoan)
				loans.POST("/:id/return", handler.ReturnLoan)
			}
		}
	}

	return router
}
