// Package devserver is an in-memory stand-in for the photoshare API, used for
// local runs of the CLI and for end-to-end tests of the client.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures a Server.
type Config struct {
	JWTSecret string
	// SeedPosts is the number of generated posts. Zero seeds accounts only.
	SeedPosts int
	// Seed makes generated content reproducible. Zero picks a random seed.
	Seed   int64
	Logger *observability.Logger
}

// FromConfig maps the shared client configuration onto a server Config.
func FromConfig(cfg *config.Config, logger *observability.Logger) Config {
	return Config{
		JWTSecret: cfg.DevServerJWTSecret,
		SeedPosts: cfg.DevServerSeedPosts,
		Logger:    logger,
	}
}

type account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         models.Role
}

type upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Fault is a forced failure for one endpoint.
type Fault struct {
	Status  int
	Message string
	// Times is how many requests fail before the fault clears. Zero fails
	// until ClearFault.
	Times int
}

// Server serves the photoshare API from memory.
type Server struct {
	cfg    Config
	app    *fiber.App
	prom   *fiberprometheus.FiberPrometheus
	logger *observability.Logger

	mu       sync.RWMutex
	accounts map[string]*account // by email
	posts    []*models.Post      // newest first
	comments map[string][]models.Comment
	uploads  map[string]upload
	faults   map[string]*Fault
}

// New builds a seeded server. It does not listen until Listen or Serve is
// called.
func New(cfg Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("devserver: JWT secret is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.GlobalLogger
	}

	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger.Component("devserver"),
		accounts: make(map[string]*account),
		comments: make(map[string][]models.Comment),
		uploads:  make(map[string]upload),
		faults:   make(map[string]*Fault),
	}
	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("seed devserver: %w", err)
	}

	s.prom = fiberprometheus.NewWithRegistry(prometheus.NewRegistry(), "photoshare-devserver", "photoshare", "devserver", nil)

	app := fiber.New(fiber.Config{
		AppName:               "photoshare devserver",
		DisableStartupMessage: true,
		BodyLimit:             20 << 20,
		ErrorHandler:          s.handleError,
	})
	s.setupMiddleware(app)
	s.setupRoutes(app)
	s.app = app
	return s, nil
}

// App exposes the fiber app, mostly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("devserver listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// InjectFault makes every request to endpoint fail with f until cleared.
// Endpoint names match the client's: "auth.login", "posts.like", ...
func (s *Server) InjectFault(endpoint string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := f
	s.faults[endpoint] = &cp
}

// ClearFault removes the fault on endpoint.
func (s *Server) ClearFault(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, endpoint)
}

func (s *Server) setupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	// Reuses the client's X-Request-ID when present.
	app.Use(requestid.New())
	app.Use(s.prom.Middleware)
	app.Use(s.requestLogger)
}

func (s *Server) setupRoutes(app *fiber.App) {
	s.prom.RegisterAt(app, "/metrics")

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Post("/signup", s.endpoint("auth.signup"), s.Signup)
	auth.Post("/login", s.endpoint("auth.login"), s.Login)
	auth.Get("/me", s.endpoint("auth.me"), s.requireAuth, s.Me)

	posts := api.Group("/posts", s.requireAuth)
	posts.Get("/", s.endpointFor(func(c *fiber.Ctx) string {
		if strings.TrimSpace(c.Query("q")) != "" {
			return "posts.search"
		}
		return "posts.list"
	}), s.ListPosts)
	posts.Post("/", s.endpoint("posts.create"), s.CreatePost)
	posts.Put("/:id", s.endpoint("posts.update"), s.UpdatePost)
	posts.Delete("/:id", s.endpoint("posts.delete"), s.DeletePost)
	posts.Post("/:id/like", s.endpoint("posts.like"), s.ToggleLike)
	posts.Get("/:id/comments", s.endpoint("comments.list"), s.ListComments)
	posts.Post("/:id/comments", s.endpoint("comments.add"), s.AddComment)
	posts.Get("/:id/download", s.endpoint("posts.download"), s.Download)

	app.Get("/uploads/:id", s.ServeImage)
}

// endpoint names the route for fault injection and logging.
func (s *Server) endpoint(name string) fiber.Handler {
	return s.endpointFor(func(*fiber.Ctx) string { return name })
}

func (s *Server) endpointFor(name func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n := name(c)
		c.Locals("endpoint", n)
		if f, ok := s.takeFault(n); ok {
			return fiber.NewError(f.Status, f.Message)
		}
		return c.Next()
	}
}

func (s *Server) takeFault(endpoint string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.faults[endpoint]
	if !ok {
		return Fault{}, false
	}
	out := *f
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			delete(s.faults, endpoint)
		}
	}
	return out, true
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	s.logger.Debug("request",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Duration("latency", time.Since(start)),
		slog.String("request_id", fmt.Sprint(c.Locals(requestid.ConfigDefault.ContextKey))),
	)
	return err
}

// handleError renders every error as {"message": ...}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		s.logger.Error("unhandled error", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	if msg == "" {
		return c.SendStatus(code)
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}

const tokenTTL = 7 * 24 * time.Hour

func (s *Server) issueToken(a *account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   a.ID,
		"sub":  a.ID,
		"role": string(a.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// requireAuth validates the bearer token and stores the caller in locals.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Authorization required")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	acc := s.accountByID(id)
	if acc == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Account no longer exists")
	}
	c.Locals("account", acc)
	return c.Next()
}

func caller(c *fiber.Ctx) *account {
	acc, _ := c.Locals("account").(*account)
	return acc
}

func (s *Server) accountByID(id string) *account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}
