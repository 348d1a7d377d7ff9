package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/auth"
	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/prefs"
	"github.com/sensorwatch/sensorwatch/internal/router"
	"github.com/sensorwatch/sensorwatch/internal/session"
	"github.com/sensorwatch/sensorwatch/internal/storage"
)

// Env is the client context shared by every command: one token store, one
// preference store and one session, all over the same durable storage
type Env struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Tokens    *auth.TokenStore
	Prefs     *prefs.Store
	API       *api.Client
	Session   *session.Controller
	Navigator *router.Navigator
	Prompter  Prompter
	Out       io.Writer
}

// Loader builds the Env of a command invocation
type Loader func(cmd *cobra.Command) (*Env, error)

// NewEnv wires an Env over st. The navigator is active on return.
func NewEnv(cfg *config.Config, logger zerolog.Logger, st storage.Storage, out io.Writer) *Env {
	tokens := auth.NewTokenStore(st, logger)

	apiClient := api.New(cfg.API.URL, tokens)
	apiClient.SetHTTPClient(&http.Client{Timeout: cfg.API.Timeout})

	sess := session.New(apiClient, tokens,
		session.WithLogger(logger),
		session.WithRoleSource(auth.RoleSource(cfg.Guard.RoleSource)),
	)
	userPrefs := prefs.Load(st, logger)

	env := &Env{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Prefs:     userPrefs,
		API:       apiClient,
		Session:   sess,
		Navigator: router.NewNavigator(sess, userPrefs, cfg.Guard.Enforce, logger),
		Prompter:  terminalPrompter{},
		Out:       out,
	}
	env.Navigator.Activate()
	return env
}

// OpenStorage opens the durable storage of the CLI: a JSON file under the
// storage directory, with the credential moved to the OS keyring when configured
func OpenStorage(cfg *config.Config, logger zerolog.Logger) (storage.Storage, error) {
	if err := os.MkdirAll(cfg.Storage.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	file, err := storage.OpenFile(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.CredentialsBackend != "keyring" {
		return file, nil
	}

	secure := storage.NewKeyring(cfg.API.URL, logger)
	return storage.NewLayered(file, secure, auth.TokenKey, auth.RoleKey), nil
}

type envKey struct{}

// WithEnv attaches env to ctx
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the Env attached to the command's context
func EnvFrom(cmd *cobra.Command) (*Env, error) {
	if env, ok := cmd.Context().Value(envKey{}).(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("command environment not initialized")
}

// apiError signs the session out on a rejected credential and makes the
// error readable on the terminal
func (e *Env) apiError(err error) error {
	if err == nil {
		return nil
	}
	if api.IsUnauthorized(e.Session.HandleAuthError(err)) {
		return ErrSessionExpired
	}
	return err
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

func (e *Env) println(args ...any) {
	fmt.Fprintln(e.Out, args...)
}
