package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/auth"
	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/prefs"
	"github.com/sensorwatch/sensorwatch/internal/router"
	"github.com/sensorwatch/sensorwatch/internal/session"
	"github.com/sensorwatch/sensorwatch/internal/storage"
)

const (
	// ClientCookie carries the client id of a browser
	ClientCookie = "sw_client"

	clientCookieMaxAge = 365 * 24 * 60 * 60
	clientKey          = "client"
)

// Client is the state of one browser. Requests of a client are serialized.
type Client struct {
	ID        string
	Tokens    *auth.TokenStore
	Prefs     *prefs.Store
	API       *api.Client
	Session   *session.Controller
	Navigator *router.Navigator

	mu sync.Mutex
}

// Registry builds the clients seen by the server. Clients serving a request
// stay pinned; released ones go to a bounded, expiring idle cache and are
// rebuilt from their durable storage once evicted.
type Registry struct {
	cfg    *config.Config
	db     *gorm.DB
	logger zerolog.Logger

	mu     sync.Mutex
	active map[string]*clientEntry
	idle   *expirable.LRU[string, *clientEntry]
}

type clientEntry struct {
	client *Client
	ready  chan struct{} // closed once client is built
	refs   int
}

const (
	defaultMaxIdleClients = 1000
	defaultClientIdleTTL  = 30 * time.Minute
)

// NewRegistry creates an empty Registry
func NewRegistry(cfg *config.Config, db *gorm.DB, logger zerolog.Logger) *Registry {
	size, ttl := cfg.Web.MaxIdleClients, cfg.Web.ClientIdleTTL
	if size <= 0 {
		size = defaultMaxIdleClients
	}
	if ttl <= 0 {
		ttl = defaultClientIdleTTL
	}

	return &Registry{
		cfg:    cfg,
		db:     db,
		logger: logger,
		active: make(map[string]*clientEntry),
		idle:   expirable.NewLRU[string, *clientEntry](size, nil, ttl),
	}
}

// Acquire returns the client with id, restoring it from its durable storage
// when it is not in memory. The client stays in memory until release is called.
func (r *Registry) Acquire(id string) (cl *Client, release func()) {
	r.mu.Lock()
	e, ok := r.active[id]
	if !ok {
		if e, ok = r.idle.Peek(id); ok {
			r.idle.Remove(id)
		} else {
			e = &clientEntry{ready: make(chan struct{})}
		}
		r.active[id] = e
	}
	e.refs++
	r.mu.Unlock()

	if !ok {
		e.client = r.build(id)
		close(e.ready)
	} else {
		<-e.ready
	}

	return e.client, func() { r.release(id, e) }
}

func (r *Registry) release(id string, e *clientEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(r.active, id)
		r.idle.Add(id, e)
	}
}

func (r *Registry) build(id string) *Client {
	logger := r.logger.With().Str("client_id", id).Logger()
	store := storage.NewSQLite(r.db, id, logger)
	tokens := auth.NewTokenStore(store, logger)

	apiClient := api.New(r.cfg.API.URL, tokens)
	apiClient.SetHTTPClient(&http.Client{Timeout: r.cfg.API.Timeout})

	sess := session.New(apiClient, tokens,
		session.WithLogger(logger),
		session.WithRoleSource(auth.RoleSource(r.cfg.Guard.RoleSource)),
	)
	userPrefs := prefs.Load(store, logger)

	cl := &Client{
		ID:        id,
		Tokens:    tokens,
		Prefs:     userPrefs,
		API:       apiClient,
		Session:   sess,
		Navigator: router.NewNavigator(sess, userPrefs, r.cfg.Guard.Enforce, logger),
	}
	// The client is fully restored, guard every navigation from now on
	cl.Navigator.Activate()
	return cl
}

// Len returns the number of clients held in memory
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active) + r.idle.Len()
}

// clientMiddleware resolves the client of the request, issuing a new id when
// the browser has none, and holds the client's lock until the request ends
func (s *Server) clientMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(ClientCookie)
		if err != nil || !validClientID(id) {
			id = ulid.Make().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookie, id, clientCookieMaxAge, "/", "", false, true)
			s.logger.Debug().Str("client_id", id).Msg("Issued new client id")
		}

		cl, release := s.clients.Acquire(id)
		defer release()

		cl.mu.Lock()
		defer cl.mu.Unlock()

		c.Set(clientKey, cl)
		c.Next()
	}
}

func validClientID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// getClient returns the client set by clientMiddleware
func getClient(c *gin.Context) *Client {
	return c.MustGet(clientKey).(*Client)
}
