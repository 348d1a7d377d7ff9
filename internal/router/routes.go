// Package router holds the static route table of the client and the guard
// that decides, before every navigation, whether to allow it or redirect.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Name identifies a route
type Name string

// Route names
const (
	Layout          Name = "Layout"
	Dashboard       Name = "Dashboard"
	Management      Name = "Management"
	Devices         Name = "Devices"
	Notifications   Name = "Notifications"
	Settings        Name = "Settings"
	Onboarding      Name = "Onboarding"
	Login           Name = "Login"
	Register        Name = "Register"
	Admin           Name = "Admin"
	UserRoleManager Name = "UserRoleManager"
)

// Landing is the default route users are sent to
const Landing = Dashboard

// ErrUnknownRoute is returned when a route name is not in the table
var ErrUnknownRoute = errors.New("unknown route")

// Meta carries the access requirements of a route
type Meta struct {
	RequiresAuth  bool
	RequiresAdmin bool
}

// Route is one entry of the route table
type Route struct {
	Path     string
	Name     Name
	Redirect string
	Meta     Meta
	Children []*Route
}

// Routes is the route table of the client
var Routes = []*Route{
	{
		Path:     "/",
		Name:     Layout,
		Redirect: "/dashboard",
		Children: []*Route{
			{Path: "/dashboard", Name: Dashboard, Meta: Meta{RequiresAuth: true}},
			{Path: "/management", Name: Management, Meta: Meta{RequiresAuth: true}},
			{Path: "/sensors", Name: Devices, Meta: Meta{RequiresAuth: true}},
			{Path: "/notifications", Name: Notifications, Meta: Meta{RequiresAuth: true}},
			{Path: "/settings", Name: Settings, Meta: Meta{RequiresAuth: true}},
		},
	},
	{Path: "/onboarding", Name: Onboarding, Meta: Meta{RequiresAuth: true}},
	{Path: "/login", Name: Login},
	{Path: "/register", Name: Register},
	{Path: "/admin", Name: Admin, Meta: Meta{RequiresAuth: true, RequiresAdmin: true}},
	{Path: "/admin/users", Name: UserRoleManager, Meta: Meta{RequiresAuth: true, RequiresAdmin: true}},
}

// chains maps every path of the table to its route chain, ancestors first
var chains = flatten(Routes, nil, map[string][]*Route{})

func flatten(routes []*Route, parents []*Route, out map[string][]*Route) map[string][]*Route {
	for _, r := range routes {
		chain := append(append([]*Route{}, parents...), r)
		out[r.Path] = chain
		flatten(r.Children, chain, out)
	}
	return out
}

// Match is a path resolved against the route table.
// An unmatched path has an empty Chain.
type Match struct {
	Path     string
	FullPath string
	Query    url.Values
	Chain    []*Route
}

// Matched reports whether the path resolved to a route
func (m Match) Matched() bool {
	return len(m.Chain) > 0
}

// Name returns the name of the deepest matched route, or "" when unmatched
func (m Match) Name() Name {
	if !m.Matched() {
		return ""
	}
	return m.Chain[len(m.Chain)-1].Name
}

// RequiresAuth reports whether any route of the chain requires authentication.
// Requiring admin implies requiring authentication.
func (m Match) RequiresAuth() bool {
	for _, r := range m.Chain {
		if r.Meta.RequiresAuth || r.Meta.RequiresAdmin {
			return true
		}
	}
	return false
}

// RequiresAdmin reports whether any route of the chain requires the admin role
func (m Match) RequiresAdmin() bool {
	for _, r := range m.Chain {
		if r.Meta.RequiresAdmin {
			return true
		}
	}
	return false
}

// maxRedirects bounds route-level redirects
const maxRedirects = 8

// Resolve matches fullPath (path with an optional query) against the route table.
// Route-level redirects are followed, the query is kept.
func Resolve(fullPath string) Match {
	path, rawQuery, _ := strings.Cut(fullPath, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	path = normalize(path)

	chain := chains[path]
	for i := 0; i < maxRedirects && len(chain) > 0; i++ {
		target := chain[len(chain)-1].Redirect
		if target == "" {
			break
		}
		path = target
		chain = chains[path]
	}

	return Match{
		Path:     path,
		FullPath: withQuery(path, query),
		Query:    query,
		Chain:    chain,
	}
}

// Paths returns every path of the table, sorted
func Paths() []string {
	paths := make([]string, 0, len(chains))
	for path := range chains {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// PathOf returns the path of the named route
func PathOf(name Name) (string, error) {
	for path, chain := range chains {
		if chain[len(chain)-1].Name == name {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
