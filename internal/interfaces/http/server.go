// Package http provides the HTTP adapter for the application layer. It is
// the surface a chat gateway or admin tool calls; the chat platform itself
// never appears below this layer.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ttakeda/budgetbot/internal/application/service"
	"github.com/ttakeda/budgetbot/internal/export"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AdminToken     string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	carts *service.CartService,
	approvals *service.ApprovalService,
	budgets *service.BudgetService,
	access *service.AccessService,
	channels *service.ChannelService,
	audit *service.AuditService,
	exporter *export.Exporter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(carts, approvals, budgets, access, channels, audit, exporter, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
	if s.config.RateLimitRPS > 0 {
		s.router.Use(s.rateLimitMiddleware())
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// rateLimitMiddleware throttles the whole API surface with a shared bucket
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(s.config.RateLimitRPS), s.config.RateLimitBurst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Success: false,
				Error:   "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// adminMiddleware gates administrative routes behind the shared token. The
// host platform performs its own administrator check before calling these.
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")
		if token == "" || token != s.config.AdminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "admin token required",
			})
			return
		}
		c.Next()
	}
}

// channelGateMiddleware rejects commands originating from a channel the
// scope has not registered. The gateway passes the originating channel in
// X-Channel-ID; scopes with an empty registry accept any channel.
func (s *Server) channelGateMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		channelID := c.GetHeader("X-Channel-ID")
		if channelID == "" {
			c.Next()
			return
		}

		allowed, err := s.handlers.channels.IsAllowed(c.Request.Context(), c.Param("scope"), channelID)
		if err != nil {
			s.handlers.fail(c, err)
			c.Abort()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Success: false,
				Error:   "channel not registered for this scope",
			})
			return
		}
		c.Next()
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers
	gate := s.channelGateMiddleware()

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1/scopes/:scope")
	{
		// Cart building; commands carry their originating channel
		api.GET("/carts/:requester", gate, h.GetCart)
		api.POST("/carts/:requester/items", gate, h.AddCartItem)
		api.DELETE("/carts/:requester/items/:position", gate, h.RemoveCartItem)
		api.PUT("/carts/:requester/budget", gate, h.SelectCartBudget)
		api.POST("/carts/:requester/submit", gate, h.SubmitCart)
		api.DELETE("/carts/:requester", gate, h.CancelCart)

		// Requests and decisions
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/decision", gate, h.DecideRequest)

		// Budgets
		api.GET("/budgets", h.ListBudgets)
		api.GET("/budgets/:name", h.GetBudgetBalance)

		// Access grants and channels (read side)
		api.GET("/roles", h.ListRoles)
		api.GET("/channels", h.ListChannels)

		// Audit log
		api.GET("/audit", h.QueryAudit)
		api.GET("/audit/export", h.ExportAudit)

		// Administrative mutations
		admin := api.Group("", s.adminMiddleware())
		{
			admin.POST("/budgets/:name/credit", h.CreditBudget)
			admin.POST("/roles", h.GrantRole)
			admin.DELETE("/roles/:role", h.RevokeRole)
			admin.POST("/channels", h.RegisterChannel)
			admin.DELETE("/channels/:channel", h.UnregisterChannel)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
