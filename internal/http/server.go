// Package http exposes the finance service as a JSON API on gin.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"finboard/internal/log"
	"finboard/internal/services"
)

// Server is an http.Server whose handler is the dashboard API.
type Server struct {
	http.Server
	svc         *services.FinanceService
	log         *log.Logger
	rateLimiter *rateLimiter
	security    *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.FinanceService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		svc:         svc,
		log:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(defaultRateLimit, defaultRateWindow),
		security:    &securityMetrics{},
	}
	s.Handler = s.routes(logger)
	return s
}

func (s *Server) routes(logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		s.log.Warn("trusted proxies not applied", log.FieldError, err.Error())
	}
	r.Use(gin.Recovery(), log.Middleware(logger), securityHeaders(s.security))

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	api := r.Group("/api", s.rateLimiter.middleware())
	{
		api.GET("/state", s.handleState)
		api.GET("/dashboard", s.handleDashboard)
		api.POST("/refresh", s.handleRefresh)
		api.PUT("/month", s.handleSetMonth)

		api.GET("/transactions", s.handleListTransactions)
		api.POST("/transactions", s.handleCreateTransaction)
		api.PUT("/transactions/:id", s.handleUpdateTransaction)
		api.DELETE("/transactions/:id", s.handleDeleteTransaction)

		api.GET("/budgets", s.handleListBudgets)
		api.GET("/budgets/comparison", s.handleBudgetComparison)
		api.POST("/budgets", s.handleCreateBudget)
		api.PUT("/budgets/:id", s.handleUpdateBudget)
		api.DELETE("/budgets/:id", s.handleDeleteBudget)

		api.GET("/categories", s.handleCategories)
		api.GET("/categories/summary", s.handleCategorySummary)
		api.GET("/expenses/monthly", s.handleMonthlyExpenses)
		api.GET("/insights", s.handleInsights)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorBody{Error: "not found"})
	})
	return r
}

// Shutdown stops the rate limiter cleanup and then the HTTP server. Only the
// first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
