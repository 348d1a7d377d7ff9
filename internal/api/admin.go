package api

import (
	"context"
	"net/http"
)

// AdminDashboard returns the admin overview counters
func (c *Client) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var dash AdminDashboard
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard", nil, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// ListUsers returns every account
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
