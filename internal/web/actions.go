package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/export"
	"github.com/sensorwatch/sensorwatch/internal/prefs"
	"github.com/sensorwatch/sensorwatch/internal/router"
	"github.com/sensorwatch/sensorwatch/internal/session"
)

// RenameSensorRequest is the body of a sensor rename
type RenameSensorRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// requireSession rejects actions of a client that is not signed in
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := getClient(c)
		cl.Session.InitializeAuth(c.Request.Context())
		if !cl.Session.IsAuthenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// afterSignIn returns where a freshly signed-in client should go
func afterSignIn(cl *Client, c *gin.Context) string {
	if !cl.Prefs.OnboardingDone() {
		path, _ := router.PathOf(router.Onboarding)
		return path
	}
	return router.SafeRedirect(c.Request.URL.Query())
}

// statusOf maps a session failure to a response status
func statusOf(err error) int {
	code := api.StatusCode(err)
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		return http.StatusBadRequest
	case code >= 400 && code < 500:
		return code
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) login(c *gin.Context) {
	cl := getClient(c)

	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := cl.Session.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": cl.Session.LastError()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     resp.User,
		"redirect": afterSignIn(cl, c),
	})
}

func (s *Server) register(c *gin.Context) {
	cl := getClient(c)

	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := cl.Session.RegisterAndLogin(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": cl.Session.LastError()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":     resp.User,
		"redirect": afterSignIn(cl, c),
	})
}

func (s *Server) logout(c *gin.Context) {
	cl := getClient(c)
	cl.Session.Logout(c.Request.Context())

	loginPath, _ := router.PathOf(router.Login)
	c.JSON(http.StatusOK, gin.H{"redirect": loginPath})
}

// applyPrefs sets every preference of the body, or none when one is rejected
func applyPrefs(store *prefs.Store, body map[string]json.RawMessage) error {
	values := make(map[string]string, len(body))
	for k, raw := range body {
		values[k] = string(raw)
	}
	return store.SetMany(values)
}

func (s *Server) prefsError(c *gin.Context, err error) {
	if errors.Is(err, prefs.ErrUnknownPreference) || errors.Is(err, prefs.ErrInvalidValue) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error().Err(err).Msg("Failed to save preferences")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preferences"})
}

func (s *Server) updatePrefs(c *gin.Context) {
	cl := getClient(c)

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := applyPrefs(cl.Prefs, body); err != nil {
		s.prefsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": cl.Prefs.Snapshot()})
}

func (s *Server) resetPrefs(c *gin.Context) {
	cl := getClient(c)

	if err := cl.Prefs.Reset(); err != nil {
		s.prefsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": cl.Prefs.Snapshot()})
}

func (s *Server) completeOnboarding(c *gin.Context) {
	cl := getClient(c)

	body := map[string]json.RawMessage{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	delete(body, cl.Prefs.HasDoneOnboarding.Key())

	if err := applyPrefs(cl.Prefs, body); err != nil {
		s.prefsError(c, err)
		return
	}
	if err := cl.Prefs.HasDoneOnboarding.Set(true); err != nil {
		s.prefsError(c, err)
		return
	}

	landing, _ := router.PathOf(router.Landing)
	c.JSON(http.StatusOK, gin.H{"redirect": landing})
}

func (s *Server) renameSensor(c *gin.Context) {
	cl := getClient(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sensor id"})
		return
	}

	var req RenameSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := cl.Prefs.RenameSensor(id, req.Name); err != nil {
		s.prefsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"names": cl.Prefs.SensorNames.Get()})
}

func (s *Server) exportMeasurements(c *gin.Context) {
	cl := getClient(c)
	ctx := c.Request.Context()

	id, err := strconv.Atoi(c.Query("sensor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sensor id"})
		return
	}

	format := export.CSV
	if raw := c.Query("format"); raw != "" {
		if format, err = export.ParseFormat(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := cl.API.SensorMeasurements(ctx, id, api.MeasurementQuery{
		Hours:     intQuery(c, "hours", 24),
		Limit:     intQuery(c, "limit", 1000),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		s.apiFailure(c, cl, err)
		return
	}

	name := cl.Prefs.SensorName(id, result.SensorName)
	records := export.MeasurementRecords(result.Measurements, export.MeasurementOptions{
		SensorName: name,
		Units:      cl.Prefs.Units(),
		Decimals:   cl.Prefs.Decimals(),
		Location:   time.Local,
	})

	base := fmt.Sprintf("%s_%s", name, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(base, format)))
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, format, records); err != nil {
		s.logger.Error().Err(err).Int("sensor_id", id).Msg("Failed to write export")
	}
}
