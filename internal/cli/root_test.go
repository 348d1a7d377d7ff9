package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorwatch/sensorwatch/internal/cli/commands"
	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/storage"
)

// mockBackend simulates the sensor API. alice is a user, root an admin.
func mockBackend(t *testing.T) *httptest.Server {
	t.Helper()

	users := map[string]string{
		"alice": `{"id": 1, "username": "alice", "email": "alice@example.com", "role": "user"}`,
		"root":  `{"id": 2, "username": "root", "role": "admin"}`,
		"bob":   `{"id": 3, "username": "bob", "role": "user"}`,
	}
	tokens := map[string]string{"Bearer T-alice": "alice", "Bearer T-root": "root", "Bearer T-bob": "bob"}

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if _, ok := tokens[r.Header.Get("Authorization")]; !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		user, ok := users[req["username"]]
		if !ok || req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Identifiants incorrects"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token": "T-` + req["username"] + `", "token_type": "bearer", "user": ` + user + `}`))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_, _ = w.Write([]byte(users[tokens[r.Header.Get("Authorization")]]))
		}
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /sensors", func(w http.ResponseWriter, r *http.Request) {
		// bob's access to sensors was revoked after sign-in
		if r.Header.Get("Authorization") == "Bearer T-bob" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			return
		}
		if authorized(w, r) {
			_, _ = w.Write([]byte(`[{"id": 1, "mac_address": "AA:BB", "name": "ruuvi-1", "is_active": true,
				"last_measurement": {"temperature": 31.5, "humidity": 45, "pressure": 1012, "battery_voltage": 2.9, "time": "2024-03-05T14:07:09"}}]`))
		}
	})
	mux.HandleFunc("GET /sensors/1/measurements", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_, _ = w.Write([]byte(`{"sensor_id": 1, "sensor_name": "ruuvi-1", "measurement_count": 2, "measurements": [
				{"time": "2024-03-05T14:07:09", "temperature": 21.5, "humidity": 45, "pressure": 1012},
				{"time": "2024-03-05T14:08:09", "temperature": 21.7, "humidity": 46, "pressure": 1011}]}`))
		}
	})
	mux.HandleFunc("GET /admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_, _ = w.Write([]byte(`{"total_sensors": 3, "active_sensors": 2, "unresolved_alerts": 1, "total_users": 4}`))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// harness runs commands against one durable storage, like repeated invocations
// of the binary on the same machine
type harness struct {
	t      *testing.T
	cfg    *config.Config
	store  storage.Storage
	loads  int
	prompt commands.Prompter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := mockBackend(t)
	return &harness{
		t: t,
		cfg: &config.Config{
			API:     config.APIConfig{URL: backend.URL, Timeout: 5 * time.Second},
			Storage: config.StorageConfig{Dir: t.TempDir(), CredentialsBackend: "file"},
			Guard:   config.GuardConfig{Enforce: true, RoleSource: "cached"},
			Web:     config.WebConfig{Addr: ":8080"},
			Watch:   config.WatchConfig{Schedule: "@every 1m"},
		},
		store: storage.NewMemory(),
	}
}

func (h *harness) load(cmd *cobra.Command) (*commands.Env, error) {
	h.loads++
	env := commands.NewEnv(h.cfg, zerolog.Nop(), h.store, cmd.OutOrStdout())
	if h.prompt != nil {
		env.Prompter = h.prompt
	}
	return env, nil
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd("test", h.load)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

// scriptedPrompter answers prompts from fixed values
type scriptedPrompter struct {
	selects map[string]string
	input   string
}

func (p scriptedPrompter) Password(string) (string, error) { return "secret", nil }

func (p scriptedPrompter) Select(label string, _ []string, current string) (string, error) {
	if v, ok := p.selects[label]; ok {
		return v, nil
	}
	return current, nil
}

func (p scriptedPrompter) Input(string, def string) (string, error) {
	if p.input != "" {
		return p.input, nil
	}
	return def, nil
}

func TestVersion_SkipsEnv(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Equal(t, "sensorwatch version test\n", out)
	assert.Zero(t, h.loads)
}

func TestGuard_Anonymous(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"sensors", "ls"},
		{"prefs", "ls"},
		{"onboarding", "--defaults"},
		{"admin", "dashboard"},
		{"watch"},
	} {
		_, err := h.run(args...)
		assert.ErrorIs(t, err, commands.ErrNotAuthenticated, "%v", args)
	}

	// Public routes stay open
	out := h.mustRun("whoami")
	assert.Contains(t, out, "Not logged in")
}

func TestSessionFlow(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--username", "alice", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Identifiants incorrects")

	out := h.mustRun("login", "--username", "alice", "--password", "secret")
	assert.Contains(t, out, "✓ Login successful!")
	assert.Contains(t, out, "alice (alice@example.com)")
	assert.Contains(t, out, "sensorwatch onboarding")

	// Onboarding comes first
	_, err = h.run("sensors", "ls")
	assert.ErrorIs(t, err, commands.ErrOnboardingRequired)

	h.prompt = scriptedPrompter{
		selects: map[string]string{"Temperature unit": "Fahrenheit"},
		input:   "Lyon",
	}
	out = h.mustRun("onboarding")
	assert.Contains(t, out, "Setup complete")

	// Onboarding is done, the route is now just a settings page
	out = h.mustRun("prefs", "get", "temperatureUnit")
	assert.Equal(t, "Fahrenheit\n", out)
	out = h.mustRun("prefs", "get", "defaultCity")
	assert.Equal(t, "Lyon\n", out)

	out = h.mustRun("sensors", "ls")
	assert.Contains(t, out, "Salon")
	assert.Contains(t, out, "88.7 °F")
	assert.Contains(t, out, "Température trop haute")

	// A signed-in user is sent away from the login page
	_, err = h.run("login", "--username", "alice", "--password", "secret")
	assert.ErrorIs(t, err, commands.ErrSkip)

	_, err = h.run("admin", "dashboard")
	assert.ErrorIs(t, err, commands.ErrAdminRequired)

	out = h.mustRun("logout")
	assert.Contains(t, out, "Logged out")

	_, err = h.run("sensors", "ls")
	assert.ErrorIs(t, err, commands.ErrNotAuthenticated)
}

func TestAdmin(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "--username", "root", "--password", "secret")
	h.mustRun("onboarding", "--defaults")

	out := h.mustRun("admin", "dashboard")
	assert.Contains(t, out, "Sensors:           3 (2 active)")
	assert.Contains(t, out, "Users:             4")
}

func TestGuard_RejectedToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set("access_token", "revoked"))
	require.NoError(t, h.store.Set("hasDoneOnboarding", "true"))

	_, err := h.run("sensors", "ls")
	assert.ErrorIs(t, err, commands.ErrNotAuthenticated)

	_, ok := h.store.Get("access_token")
	assert.False(t, ok, "rejected token is cleared")
}

func TestGuard_Disabled(t *testing.T) {
	h := newHarness(t)
	h.cfg.Guard.Enforce = false

	// Without a session the backend still refuses the call
	_, err := h.run("sensors", "ls")
	require.Error(t, err)
	assert.NotErrorIs(t, err, commands.ErrNotAuthenticated)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "--username", "alice", "--password", "secret")
	h.mustRun("onboarding", "--defaults")

	dir := t.TempDir()
	out := h.mustRun("export", "1", "--format", "csv", "--out", dir)
	assert.Contains(t, out, "2 measurements written")

	data, err := os.ReadFile(filepath.Join(dir, "Salon.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Date,Capteur,Température (°C)")
	assert.Contains(t, string(data), "Salon,21.5,45,1012")

	out = h.mustRun("readings", "history", "1")
	assert.Contains(t, out, "21.7")

	_, err = h.run("export", "1", "--format", "pdf", "--out", dir)
	assert.Error(t, err)
}

func TestWatch_RejectedCredentialSignsOut(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "--username", "bob", "--password", "secret")
	h.mustRun("onboarding", "--defaults")

	done := make(chan error, 1)
	go func() {
		_, err := h.run("watch", "--schedule", "@every 1h")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, commands.ErrSessionExpired)
	case <-time.After(5 * time.Second):
		t.Fatal("watch kept polling with a rejected credential")
	}

	_, ok := h.store.Get("access_token")
	assert.False(t, ok, "rejected token is cleared")

	_, err := h.run("sensors", "ls")
	assert.ErrorIs(t, err, commands.ErrNotAuthenticated)
}
