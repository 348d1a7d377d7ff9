package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Get() (string, bool) {
	return string(s), s != ""
}

// mockAPIServer creates a mock sensor backend for testing
func mockAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Username != "alice" || req.Password != "x" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Identifiants incorrects"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "T1",
			"token_type":   "bearer",
			"user":         map[string]any{"id": 1, "username": "alice", "role": "user", "is_active": true},
		})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "username": "alice", "role": "user"})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"msg": "value is not a valid email address"}]}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	})
	mux.HandleFunc("GET /sensors", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active_only"))
		w.Write([]byte(`[{"id": 1, "mac_address": "AA:BB", "name": "ruuvi-1", "is_active": true,
			"last_measurement": {"temperature": 21.5, "humidity": 45, "pressure": 1012, "battery_voltage": 2.9, "time": "2024-03-05T14:07:09"}}]`))
	})
	mux.HandleFunc("GET /sensors/1/measurements", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "24", r.URL.Query().Get("hours"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"sensor_id": 1, "measurement_count": 1, "measurements": [{"time": "2024-03-05T14:07:09", "temperature": 21.5}]}`))
	})

	return httptest.NewServer(mux)
}

func TestLogin(t *testing.T) {
	srv := mockAPIServer(t)
	defer srv.Close()

	c := New(srv.URL, nil)
	resp, err := c.Login(context.Background(), LoginRequest{Username: "alice", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "T1", resp.AccessToken)
	assert.Equal(t, 1, resp.User.ID)
	assert.Equal(t, "user", resp.User.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := mockAPIServer(t)
	defer srv.Close()

	_, err := New(srv.URL, nil).Login(context.Background(), LoginRequest{Username: "alice", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, "Identifiants incorrects", err.Error())
	assert.True(t, IsUnauthorized(err))
}

func TestCurrentUser_AttachesBearerToken(t *testing.T) {
	srv := mockAPIServer(t)
	defer srv.Close()

	user, err := New(srv.URL, staticToken("T1")).CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = New(srv.URL, staticToken("")).CurrentUser(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestErrorMessages(t *testing.T) {
	srv := mockAPIServer(t)
	defer srv.Close()
	c := New(srv.URL, nil)

	_, err := c.Register(context.Background(), RegisterRequest{Username: "bob"})
	require.Error(t, err)
	assert.Equal(t, "value is not a valid email address", err.Error())
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))

	err = c.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HTTP 500", err.Error())
}

func TestTransportError(t *testing.T) {
	srv := mockAPIServer(t)
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
	assert.Equal(t, 0, StatusCode(err))
}

func TestSensors(t *testing.T) {
	srv := mockAPIServer(t)
	defer srv.Close()
	c := New(srv.URL, staticToken("T1"))

	sensors, err := c.ListSensors(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	require.NotNil(t, sensors[0].LastMeasurement)
	assert.Equal(t, 21.5, *sensors[0].LastMeasurement.Temperature)

	page, err := c.SensorMeasurements(context.Background(), 1, MeasurementQuery{Hours: 24, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Measurements, 1)
	assert.Nil(t, page.Measurements[0].Humidity)
}
