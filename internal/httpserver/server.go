// internal/httpserver/server.go
package httpserver

import (
	"context"
	"net/http"
	"time"

	"quote-intake/internal/common/logger"
	"quote-intake/internal/wizard"

	"github.com/gin-gonic/gin"
)

// ReadyCheck reports whether a backing service is reachable.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Sessions       *wizard.Registry
	Suggester      wizard.Suggester
	AllowedOrigins []string
	MaxFileBytes   int
	ReadyChecks    []ReadyCheck
	Metrics        http.Handler
	Logger         logger.Logger
}

// Server wraps the HTTP listener of the quote API.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func New(addr string, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: deps.Logger,
	}
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(checks []ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"reason": check.Name + " not reachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
		}
		if id := c.Param("id"); id != "" {
			fields["sessionId"] = id
		}
		log.Debug("request served", fields)
	}
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}
