package httpserver

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Server struct {
	app *fiber.App
	log *zap.Logger
}

// NewServer builds the fiber app with request logging and the health check.
// errorHandler renders the errors returned by route handlers.
func NewServer(log *zap.Logger, errorHandler fiber.ErrorHandler) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("remote_addr", c.IP()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return &Server{app: app, log: log}
}

// App exposes the router so modules can mount their routes
func (s *Server) App() *fiber.App {
	return s.app
}

// Start blocks serving addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.log.Info("HTTP server started", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")
	return s.app.ShutdownWithContext(ctx)
}
