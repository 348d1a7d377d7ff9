package auth

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sensorwatch/sensorwatch/internal/storage"
)

// Fixed storage keys of the credential and the cached role
const (
	TokenKey = "access_token"
	RoleKey  = "user_role"
)

// ErrNoToken is returned when a credential is required but none is stored
var ErrNoToken = errors.New("no access token stored")

// TokenStore owns the persisted bearer token and the cached user role.
// The token is opaque, nothing here inspects it.
type TokenStore struct {
	store  storage.Storage
	logger zerolog.Logger
}

// NewTokenStore creates a TokenStore over s
func NewTokenStore(s storage.Storage, logger zerolog.Logger) *TokenStore {
	return &TokenStore{store: s, logger: logger}
}

// Get returns the current token, if any
func (t *TokenStore) Get() (string, bool) {
	token, ok := t.store.Get(TokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Require returns the current token or ErrNoToken
func (t *TokenStore) Require() (string, error) {
	token, ok := t.Get()
	if !ok {
		return "", ErrNoToken
	}
	return token, nil
}

// Set persists token as the active credential
func (t *TokenStore) Set(token string) error {
	if err := t.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Role returns the cached role, or "" when none is cached
func (t *TokenStore) Role() string {
	role, _ := t.store.Get(RoleKey)
	return role
}

// SetRole caches role for synchronous role checks
func (t *TokenStore) SetRole(role string) error {
	if err := t.store.Set(RoleKey, role); err != nil {
		return fmt.Errorf("failed to save user role: %w", err)
	}
	return nil
}

// Clear removes the token and the cached role. Both removals are attempted.
func (t *TokenStore) Clear() error {
	var errs []error
	if err := t.store.Remove(TokenKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete token: %w", err))
	}
	if err := t.store.Remove(RoleKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete user role: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		t.logger.Error().Err(err).Msg("Failed to clear credentials")
		return err
	}
	return nil
}
