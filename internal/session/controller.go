// Package session keeps the signed-in user of a client in step with its
// persisted credential.
//
// Whatever the remote outcome, the in-memory user and the stored token are
// never left disagreeing: a failed "who am I" or any 401 clears both.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/auth"
)

// Backend is the subset of the API client the controller drives
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*api.User, error)
}

// ErrInvalidInput is returned when credentials or a registration payload fail local validation
var ErrInvalidInput = errors.New("invalid input")

// ErrMissingToken is returned when a login response carries no access token
var ErrMissingToken = errors.New("login response carried no access token")

// Session is the in-memory state of the signed-in user
type Session struct {
	User      *api.User
	IsLoading bool
	LastError string
}

// Fallback messages when an error carries none
const (
	msgLogin       = "Erreur de connexion"
	msgCurrentUser = "Erreur de récupération utilisateur"
	msgRegister    = "Erreur d'inscription"
)

// Controller runs login, logout, registration and current-user refresh
type Controller struct {
	backend    Backend
	tokens     *auth.TokenStore
	roleSource auth.RoleSource
	validate   *validator.Validate
	logger     zerolog.Logger
	state      Session
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRoleSource selects how the admin role is derived
func WithRoleSource(src auth.RoleSource) Option {
	return func(c *Controller) {
		c.roleSource = src
	}
}

// New creates a Controller with an empty session
func New(backend Backend, tokens *auth.TokenStore, opts ...Option) *Controller {
	c := &Controller{
		backend:    backend,
		tokens:     tokens,
		roleSource: auth.RoleSourceCached,
		validate:   validator.New(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current state, user included
func (c *Controller) Session() Session {
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// User returns the signed-in user, or nil
func (c *Controller) User() *api.User {
	return c.state.User
}

// LastError returns the message of the last failure
func (c *Controller) LastError() string {
	return c.state.LastError
}

// ClearError forgets the last failure
func (c *Controller) ClearError() {
	c.state.LastError = ""
}

// IsAuthenticated reports whether a user is signed in
func (c *Controller) IsAuthenticated() bool {
	return c.state.User != nil
}

// IsAdmin reports whether the signed-in user has the admin role
func (c *Controller) IsAdmin() bool {
	if c.state.User == nil {
		return false
	}
	return c.role() == auth.AdminRole
}

// role resolves the user's role from the configured source
func (c *Controller) role() string {
	if c.roleSource == auth.RoleSourceToken {
		token, ok := c.tokens.Get()
		if !ok {
			return ""
		}
		role, err := auth.RoleFromToken(token)
		if err != nil {
			c.logger.Debug().Err(err).Msg("Failed to read role from token")
			return ""
		}
		return role
	}

	if c.state.User.Role != "" {
		return c.state.User.Role
	}
	return c.tokens.Role()
}

// HasToken reports whether a credential is stored
func (c *Controller) HasToken() bool {
	_, ok := c.tokens.Get()
	return ok
}

// Login authenticates with creds. On failure the current session is kept.
func (c *Controller) Login(ctx context.Context, creds api.LoginRequest) (*api.LoginResponse, error) {
	c.begin()
	defer c.end()

	if err := c.validate.Struct(creds); err != nil {
		c.fail(err, msgLogin)
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	resp, err := c.backend.Login(ctx, creds)
	if err != nil {
		c.fail(err, msgLogin)
		return nil, err
	}

	if err := c.establish(resp); err != nil {
		c.fail(err, msgLogin)
		return nil, err
	}

	c.logger.Info().Str("username", resp.User.Username).Msg("Logged in")
	return resp, nil
}

// establish stores the token and role of a successful login.
// Nothing changes when the response has no token.
func (c *Controller) establish(resp *api.LoginResponse) error {
	if resp == nil || resp.AccessToken == "" {
		return ErrMissingToken
	}
	if err := c.tokens.Set(resp.AccessToken); err != nil {
		return err
	}
	user := resp.User
	c.state.User = &user
	if err := c.tokens.SetRole(user.Role); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache user role")
	}
	return nil
}

// Logout ends the session. The remote call is best effort, local state is always cleared.
func (c *Controller) Logout(ctx context.Context) {
	c.begin()
	defer c.end()

	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Remote logout failed")
	}

	c.clearLocal()
	c.logger.Info().Msg("Logged out")
}

// GetCurrentUser refreshes the user from the stored token.
// On failure the token and the user are cleared before the error is returned.
func (c *Controller) GetCurrentUser(ctx context.Context) (*api.User, error) {
	c.begin()
	defer c.end()

	user, err := c.backend.CurrentUser(ctx)
	if err != nil {
		c.fail(err, msgCurrentUser)
		c.clearLocal()
		return nil, err
	}

	c.state.User = user
	if err := c.tokens.SetRole(user.Role); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache user role")
	}
	return user, nil
}

// RegisterAndLogin creates an account then signs in with the same credentials.
// A registration failure returns before any login attempt.
func (c *Controller) RegisterAndLogin(ctx context.Context, payload api.RegisterRequest) (*api.LoginResponse, error) {
	c.begin()
	if err := c.validate.Struct(payload); err != nil {
		c.fail(err, msgRegister)
		c.end()
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := c.backend.Register(ctx, payload); err != nil {
		c.fail(err, msgRegister)
		c.end()
		return nil, err
	}
	c.end()

	return c.Login(ctx, api.LoginRequest{Username: payload.Username, Password: payload.Password})
}

// InitializeAuth restores the user of a stored token after a fresh start.
// Failures are swallowed, GetCurrentUser already cleared the stale credential.
func (c *Controller) InitializeAuth(ctx context.Context) {
	if c.state.User != nil || !c.HasToken() {
		return
	}

	if _, err := c.GetCurrentUser(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Stored token rejected, signed out")
	}
}

// HandleAuthError clears the session when err is an authorization failure.
// It returns err unchanged so callers can write `return c.HandleAuthError(err)`.
func (c *Controller) HandleAuthError(err error) error {
	if err != nil && api.IsUnauthorized(err) {
		c.logger.Info().Msg("Authorization rejected by the API, signing out")
		c.clearLocal()
	}
	return err
}

func (c *Controller) clearLocal() {
	c.state.User = nil
	if err := c.tokens.Clear(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear stored credentials")
	}
}

func (c *Controller) begin() {
	c.state.IsLoading = true
	c.state.LastError = ""
}

func (c *Controller) end() {
	c.state.IsLoading = false
}

func (c *Controller) fail(err error, fallback string) {
	msg := err.Error()
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	if msg == "" {
		msg = fallback
	}
	c.state.LastError = msg
}
