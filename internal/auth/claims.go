package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RoleSource selects how the admin role is derived
type RoleSource string

const (
	// RoleSourceCached trusts the role returned by login/me and cached locally
	RoleSourceCached RoleSource = "cached"
	// RoleSourceToken decodes the role claim from the bearer token payload
	RoleSourceToken RoleSource = "token"
)

// AdminRole is the role value granting admin routes
const AdminRole = "admin"

// ErrNoRoleClaim is returned when the token carries no role claim
var ErrNoRoleClaim = errors.New("token has no role claim")

// RoleFromToken reads the "role" claim of a JWT without verifying its signature.
// The backend stays the authority, this only drives client-side navigation.
func RoleFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", ErrNoRoleClaim
	}
	return role, nil
}
