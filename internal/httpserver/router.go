// internal/httpserver/router.go
package httpserver

import (
	"time"

	"quote-intake/internal/common/errors"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine of the quote API.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(deps.Logger), gin.Recovery())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	if deps.MaxFileBytes > 0 {
		router.MaxMultipartMemory = int64(deps.MaxFileBytes) + 1<<20
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", readyHandler(deps.ReadyChecks))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	h := &quoteHandlers{
		sessions:     deps.Sessions,
		suggester:    deps.Suggester,
		maxFileBytes: deps.MaxFileBytes,
		fail:         errors.NewErrorHandler(deps.Logger).HandleRequestError,
	}

	api := router.Group("/api/v1")
	api.GET("/address/suggestions", h.suggestions)

	sessions := api.Group("/quote/sessions")
	sessions.POST("", h.createSession)
	sessions.GET("/:id", h.getSession)
	sessions.PATCH("/:id/draft", h.updateDraft)
	sessions.POST("/:id/files", h.attachFile)
	sessions.DELETE("/:id/files/:index", h.removeFile)
	sessions.POST("/:id/address/select", h.selectSuggestion)
	sessions.POST("/:id/next", h.navigate(navNext))
	sessions.POST("/:id/back", h.navigate(navBack))
	sessions.POST("/:id/submit", h.navigate(navSubmit))
	sessions.POST("/:id/start-over", h.navigate(navStartOver))
	sessions.POST("/:id/retry", h.navigate(navRetry))

	return router
}
