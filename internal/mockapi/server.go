// Package mockapi is an in-memory stand-in for the remote prasad API. It
// speaks the same wire format so the client runtime can run end to end
// without the real backend.
package mockapi

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const BasePath = "/api/v2/mp"

var ErrInvalidCredentials = errors.New("invalid username or password")

type Options struct {
	JWTSecret string
	Seed      Seed
	Pricing   Pricing
	// TokenTTL defaults to 72h.
	TokenTTL time.Duration
	// AllowFaults enables the /dev/faults endpoint.
	AllowFaults bool
	Logger      *zap.Logger
	// Middleware runs ahead of every route.
	Middleware []fiber.Handler
}

type devotee struct {
	ID       string
	Username string
	Name     string
	hash     []byte
}

type Server struct {
	opts     Options
	repo     *Repository
	devotees map[string]devotee
	logger   *zap.Logger

	failReceipts atomic.Bool
}

func New(opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("mockapi: JWT secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 72 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		opts:     opts,
		repo:     NewRepository(opts.Seed, opts.Pricing),
		devotees: make(map[string]devotee, len(opts.Seed.Devotees)),
		logger:   opts.Logger,
	}
	for _, d := range opts.Seed.Devotees {
		hash := []byte(d.Password)
		if !looksLikeBcrypt(d.Password) {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(d.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("mockapi: hash password for %s: %w", d.Username, err)
			}
		}
		s.devotees[d.Username] = devotee{ID: d.ID, Username: d.Username, Name: d.Name, hash: hash}
	}
	return s, nil
}

func looksLikeBcrypt(value string) bool {
	return len(value) > 4 && value[0:2] == "$2"
}

// Repository exposes the backing state, mainly for tests.
func (s *Server) Repository() *Repository {
	return s.repo
}

// SetFailReceipts makes every receipt creation fail until reset.
func (s *Server) SetFailReceipts(fail bool) {
	s.failReceipts.Store(fail)
}

func (s *Server) authenticate(username, password string) (devotee, error) {
	d, ok := s.devotees[username]
	if !ok {
		return devotee{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(d.hash, []byte(password)) != nil {
		return devotee{}, ErrInvalidCredentials
	}
	return d, nil
}

func (s *Server) issueToken(d devotee) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  d.ID,
		"username": d.Username,
		"exp":      time.Now().Add(s.opts.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
}

// App builds the fiber application. Login and the dev endpoints are public;
// everything else needs a bearer token.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	for _, m := range s.opts.Middleware {
		app.Use(m)
	}
	api := app.Group(BasePath)

	api.Post("/auth/login", s.login)
	api.Post("/dev/faults", s.setFaults)

	api.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(s.opts.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fail(c, fiber.StatusUnauthorized, "Unauthorized", "Session expired. Please log in again.")
		},
	}))
	s.registerProtectedRoutes(api)
	return app
}

// userIDFromCtx reads the devotee id from the verified token.
func userIDFromCtx(c *fiber.Ctx) (string, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", fiber.ErrUnauthorized
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	if payload.Username == "" || payload.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Bad Request", "Username and password are required")
	}
	d, err := s.authenticate(payload.Username, payload.Password)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid username or password")
	}
	token, err := s.issueToken(d)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal Server Error", "failed to generate token")
	}
	s.logger.Info("devotee logged in", zap.String("userId", d.ID))
	return ok(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token":  token,
		"userId": d.ID,
		"user":   fiber.Map{"_id": d.ID, "username": d.Username, "name": d.Name},
	})
}

type faultsRequest struct {
	FailReceipts bool `json:"failReceipts"`
}

func (s *Server) setFaults(c *fiber.Ctx) error {
	if !s.opts.AllowFaults {
		return fail(c, fiber.StatusForbidden, "Forbidden", "fault injection not allowed")
	}
	payload := new(faultsRequest)
	if err := c.BodyParser(payload); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	s.SetFailReceipts(payload.FailReceipts)
	return ok(c, fiber.StatusOK, "faults updated", payload)
}

func ok(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{"status": "success", "message": message, "data": data})
}

func fail(c *fiber.Ctx, status int, errText, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "error": errText, "message": message})
}
