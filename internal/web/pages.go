package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/dashboard"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

const matchKey = "match"

// guardMiddleware runs the client's navigator on page requests.
// A redirect decision answers 302 with the target location.
func (s *Server) guardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}

		cl := getClient(c)
		m, d := cl.Navigator.Navigate(c.Request.Context(), c.Request.URL.RequestURI())
		if d.Redirect {
			s.metrics.CounterGuardRedirects.WithLabelValues(string(d.Reason)).Inc()
			c.Redirect(http.StatusFound, d.Location())
			c.Abort()
			return
		}

		// Route-level redirects, e.g. / to /dashboard
		if m.Matched() && m.Path != c.Request.URL.Path {
			c.Redirect(http.StatusFound, m.FullPath)
			c.Abort()
			return
		}

		c.Set(matchKey, m)
		c.Next()
	}
}

type view func(ctx context.Context, cl *Client, c *gin.Context) (any, error)

func (s *Server) views() map[router.Name]view {
	return map[router.Name]view{
		router.Dashboard:       s.dashboardView,
		router.Management:      s.managementView,
		router.Devices:         s.devicesView,
		router.Notifications:   s.notificationsView,
		router.Settings:        s.settingsView,
		router.Onboarding:      s.onboardingView,
		router.Login:           s.authView,
		router.Register:        s.authView,
		router.Admin:           s.adminView,
		router.UserRoleManager: s.usersView,
	}
}

// page renders the JSON view of the matched route
func (s *Server) page(c *gin.Context) {
	m := c.MustGet(matchKey).(router.Match)
	cl := getClient(c)

	render, ok := s.views()[m.Name()]
	if !ok {
		s.notFound(c)
		return
	}

	data, err := render(c.Request.Context(), cl, c)
	if err != nil {
		s.apiFailure(c, cl, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  m.Name(),
		"path":  m.Path,
		"user":  cl.Session.User(),
		"admin": cl.Session.IsAdmin(),
		"theme": cl.Prefs.Theme.Get(),
		"lang":  cl.Prefs.Lang.Get(),
		"data":  data,
	})
}

// apiFailure answers a failed backend call. A rejected credential signs the
// client out and sends it to the login page.
func (s *Server) apiFailure(c *gin.Context, cl *Client, err error) {
	s.metrics.CounterAPIFailures.WithLabelValues(strconv.Itoa(api.StatusCode(err))).Inc()

	if api.IsUnauthorized(cl.Session.HandleAuthError(err)) {
		loginPath, _ := router.PathOf(router.Login)
		q := url.Values{router.RedirectParam: {c.Request.URL.RequestURI()}}
		c.Redirect(http.StatusFound, loginPath+"?"+q.Encode())
		return
	}

	s.logger.Error().Err(err).Str("client_id", cl.ID).Str("path", c.Request.URL.Path).Msg("Backend request failed")

	status, message := http.StatusBadGateway, err.Error()
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		message = apiErr.Message
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
	}
	c.JSON(status, gin.H{"error": message})
}

func unitsView(u readings.Units) gin.H {
	return gin.H{
		"temperature": readings.TemperatureSymbol(u.Temperature),
		"pressure":    u.Pressure,
		"humidity":    u.Humidity,
	}
}

func (s *Server) sensorRows(ctx context.Context, cl *Client) ([]dashboard.Row, error) {
	sensors, err := cl.API.ListSensors(ctx, false)
	if err != nil {
		return nil, err
	}
	return dashboard.Rows(sensors, cl.Prefs, time.Local), nil
}

func (s *Server) dashboardView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	rows, err := s.sensorRows(ctx, cl)
	if err != nil {
		return nil, err
	}

	city := cl.Prefs.DefaultCity.Get()
	var outdoor *float64
	if s.weather != nil {
		if temp, err := s.weather.Temperature(ctx, city); err == nil {
			temp = readings.Round(readings.Temperature(temp, cl.Prefs.TemperatureUnit.Get()), cl.Prefs.Decimals())
			outdoor = &temp
		} else {
			s.logger.Debug().Err(err).Str("city", city).Msg("Outdoor temperature unavailable")
		}
	}

	return gin.H{
		"sensors":             rows,
		"alerts":              dashboard.Alerts(rows),
		"units":               unitsView(cl.Prefs.Units()),
		"city":                city,
		"outdoor_temperature": outdoor,
	}, nil
}

func (s *Server) managementView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	rows, err := s.sensorRows(ctx, cl)
	if err != nil {
		return nil, err
	}
	return gin.H{"sensors": rows, "names": cl.Prefs.SensorNames.Get()}, nil
}

func (s *Server) devicesView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	raw := c.Query("sensor")
	if raw == "" {
		rows, err := s.sensorRows(ctx, cl)
		if err != nil {
			return nil, err
		}
		return gin.H{"sensors": rows, "units": unitsView(cl.Prefs.Units())}, nil
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &api.Error{StatusCode: http.StatusBadRequest, Message: "invalid sensor id"}
	}
	hours := intQuery(c, "hours", 24)

	sensor, err := cl.API.GetSensor(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := cl.API.SensorStats(ctx, id, hours)
	if err != nil {
		return nil, err
	}
	history, err := cl.API.SensorMeasurements(ctx, id, api.MeasurementQuery{Hours: hours, Limit: intQuery(c, "limit", 100)})
	if err != nil {
		return nil, err
	}

	rows := dashboard.Rows([]api.Sensor{*sensor}, cl.Prefs, time.Local)
	return gin.H{
		"sensor":       rows[0],
		"stats":        stats,
		"measurements": history.Measurements,
		"units":        unitsView(cl.Prefs.Units()),
	}, nil
}

func (s *Server) notificationsView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	rows, err := s.sensorRows(ctx, cl)
	if err != nil {
		return nil, err
	}
	th := cl.Prefs.Thresholds()
	return gin.H{
		"alerts":    dashboard.Alerts(rows),
		"by_email":  cl.Prefs.AlertByEmail.Get(),
		"frequency": cl.Prefs.AlertFrequency.Get(),
		"thresholds": gin.H{
			"temperature": []float64{th.TemperatureMin, th.TemperatureMax},
			"humidity":    []float64{th.HumidityMin, th.HumidityMax},
			"pressure":    []float64{th.PressureMin, th.PressureMax},
		},
		"units": unitsView(cl.Prefs.Units()),
	}, nil
}

func (s *Server) settingsView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	return gin.H{"preferences": cl.Prefs.Snapshot()}, nil
}

func (s *Server) onboardingView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	return gin.H{
		"done":        cl.Prefs.OnboardingDone(),
		"preferences": cl.Prefs.Snapshot(),
	}, nil
}

// authView shows the last sign-in failure once
func (s *Server) authView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	lastError := cl.Session.LastError()
	cl.Session.ClearError()
	return gin.H{
		"redirect": router.SafeRedirect(c.Request.URL.Query()),
		"error":    lastError,
	}, nil
}

func (s *Server) adminView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	return cl.API.AdminDashboard(ctx)
}

func (s *Server) usersView(ctx context.Context, cl *Client, c *gin.Context) (any, error) {
	users, err := cl.API.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{"users": users}, nil
}

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
