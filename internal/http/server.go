// Package http serves the JSON API over the repositories and aggregate
// services.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/log"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Repos    *repository.Set
	Summary  *services.SummaryService
	Sync     *services.SpentSync
	Exporter *services.Exporter
}

// Options tune the server.
type Options struct {
	GinMode           string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Now reports the current time; summaries default to its month.
	Now func() time.Time
}

type Server struct {
	http.Server
	engine      *gin.Engine
	rateLimiter *rateLimiter
	logger      *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options, logger *log.Logger) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		engine:      gin.New(),
		rateLimiter: newRateLimiter(opts.RateLimitRequests, opts.RateLimitWindow),
		logger:      logger,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.engine.Use(recovery(logger), requestContext(logger), securityHeaders())
	s.engine.GET("/healthz", handleHealth)

	h := &handlers{svc: svc, now: opts.Now}
	api := s.engine.Group("/api/v1", rateLimit(s.rateLimiter, logger))
	{
		tx := api.Group("/transactions")
		tx.GET("", h.listTransactions)
		tx.POST("", h.createTransaction)
		tx.GET("/export", h.exportTransactions)
		tx.GET("/:id", h.getTransaction)
		tx.PATCH("/:id", h.updateTransaction)
		tx.DELETE("/:id", h.deleteTransaction)

		b := api.Group("/budgets")
		b.GET("", h.listBudgets)
		b.POST("", h.createBudget)
		b.PUT("/spent", h.updateBudgetSpent)
		b.POST("/recompute", h.recomputeBudgets)
		b.GET("/:id", h.getBudget)
		b.PATCH("/:id", h.updateBudget)
		b.DELETE("/:id", h.deleteBudget)

		cat := api.Group("/categories")
		cat.GET("", h.listCategories)
		cat.POST("", h.createCategory)
		cat.GET("/:id", h.getCategory)
		cat.PATCH("/:id", h.updateCategory)
		cat.DELETE("/:id", h.deleteCategory)

		g := api.Group("/goals")
		g.GET("", h.listGoals)
		g.POST("", h.createGoal)
		g.GET("/:id", h.getGoal)
		g.PATCH("/:id", h.updateGoal)
		g.DELETE("/:id", h.deleteGoal)
		g.POST("/:id/contributions", h.addContribution)

		sum := api.Group("/summary")
		sum.GET("/budgets", h.budgetSummary)
		sum.GET("/goals", h.goalSummary)
		sum.GET("/categories", h.categorySummary)
		sum.GET("/trend", h.trend)
		sum.GET("/dashboard", h.dashboard)
	}
	s.engine.NoRoute(func(c *gin.Context) {
		NotFound(c, "route not found")
	})

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
