// Package rest provides the REST API server for the batch contextualization
// and parallel review services.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"yqhp/agent-batch/internal/config"
	"yqhp/agent-batch/internal/llm"
	"yqhp/agent-batch/internal/metrics"
	"yqhp/agent-batch/internal/review"
)

// Server represents the REST API server.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	model     llm.ChatModel
	collector *metrics.Collector
	fetcher   *review.DiffFetcher
}

// NewServer creates a new REST API server.
func NewServer(cfg *config.Config, model llm.ChatModel, collector *metrics.Collector) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: customErrorHandler,
		AppName:      "Agent Batch API",
	})

	server := &Server{
		app:       app,
		cfg:       cfg,
		model:     model,
		collector: collector,
		fetcher:   review.NewDiffFetcher(cfg.Review),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	// Recovery middleware - recovers from panics
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware - tags every request for log correlation
	s.app.Use(requestid.New())

	// Logger middleware - logs HTTP requests
	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${locals:requestid} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS middleware
	if s.cfg.Server.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:     "*",
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: false,
			MaxAge:           86400,
		}))
	}
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	// Health check endpoints
	s.app.Get("/health", s.healthCheck)

	// API v1 routes
	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthCheck)

	// 批量上下文生成
	api.Post("/contextualize", s.contextualize)

	// 并行代码评审
	api.Post("/review", s.reviewDiff)

	// 执行指标
	api.Get("/metrics", s.getMetrics)
	api.Delete("/metrics", s.resetMetrics)
}

// Start starts the REST API server.
func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Address)
}

// StartWithContext starts the REST API server with context support.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(s.cfg.Server.Address)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ShutdownWithTimeout gracefully shuts down the server with a timeout.
func (s *Server) ShutdownWithTimeout(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// customErrorHandler handles errors returned by handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   fmt.Sprintf("error_%d", code),
		Message: message,
	})
}
