package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/export"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
	"github.com/sensorwatch/sensorwatch/internal/storage"
)

func testEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		API:   config.APIConfig{URL: "http://127.0.0.1:1", Timeout: time.Second},
		Guard: config.GuardConfig{Enforce: true, RoleSource: "cached"},
	}
	var out bytes.Buffer
	return NewEnv(cfg, zerolog.Nop(), storage.NewMemory(), &out), &out
}

type fakePrompter struct {
	selected []string
}

func (p *fakePrompter) Password(string) (string, error) { return "", nil }

func (p *fakePrompter) Select(label string, items []string, current string) (string, error) {
	p.selected = append(p.selected, label)
	return items[len(items)-1], nil
}

func (p *fakePrompter) Input(string, string) (string, error) { return "  Brest ", nil }

func TestParseSensorID(t *testing.T) {
	id, err := parseSensorID("12")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseSensorID(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatValue(t *testing.T) {
	v := 21.5
	assert.Equal(t, "21.5 °C", formatValue(&v, "°C"))
	assert.Equal(t, "-", formatValue(nil, "°C"))
}

func TestPrefText(t *testing.T) {
	assert.Equal(t, `{"1":"Cuisine"}`, prefText(map[string]string{"1": "Cuisine"}))
	assert.Equal(t, "true", prefText(true))
	assert.Equal(t, "hPa", prefText(readings.HectoPascal))
}

func TestPrintRecords(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRecords(&out, []export.Record{
		{{Name: "Date", Value: "05/03/2024"}, {Name: "Température (°C)", Value: 21.5}},
		{{Name: "Date", Value: "06/03/2024"}, {Name: "Température (°C)", Value: nil}},
	}))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "Date")
	assert.Contains(t, string(lines[1]), "21.5")
	assert.Contains(t, string(lines[2]), "-")

	out.Reset()
	require.NoError(t, printRecords(&out, nil))
	assert.Empty(t, out.String())
}

func TestWithRoute(t *testing.T) {
	cmd := withRoute(&cobra.Command{Use: "x"}, router.Management)
	assert.Equal(t, "/management", cmd.Annotations[RouteAnnotation])

	assert.Panics(t, func() { withRoute(&cobra.Command{Use: "y"}, router.Name("Nope")) })
}

func TestGuard(t *testing.T) {
	env, out := testEnv(t)

	unannotated := &cobra.Command{Use: "version"}
	unannotated.SetContext(context.Background())
	assert.NoError(t, Guard(unannotated, env))

	cmd := withRoute(&cobra.Command{Use: "ls"}, router.Devices)
	cmd.SetContext(context.Background())
	assert.ErrorIs(t, Guard(cmd, env), ErrNotAuthenticated)

	login := withRoute(&cobra.Command{Use: "login"}, router.Login)
	login.SetContext(context.Background())
	assert.NoError(t, Guard(login, env))
	assert.Empty(t, out.String())
}

func TestEnvFrom(t *testing.T) {
	env, _ := testEnv(t)

	cmd := &cobra.Command{Use: "x"}
	cmd.SetContext(context.Background())
	_, err := EnvFrom(cmd)
	assert.Error(t, err)

	cmd.SetContext(WithEnv(context.Background(), env))
	got, err := EnvFrom(cmd)
	require.NoError(t, err)
	assert.Same(t, env, got)
}

func TestOnboardingPrompts(t *testing.T) {
	env, _ := testEnv(t)
	p := &fakePrompter{}
	env.Prompter = p

	require.NoError(t, runOnboardingPrompts(env))

	assert.Equal(t, []string{"Temperature unit", "Pressure unit", "Humidity unit", "Alert frequency"}, p.selected)
	assert.Equal(t, readings.Fahrenheit, env.Prefs.TemperatureUnit.Get())
	assert.Equal(t, readings.InchHg, env.Prefs.PressureUnit.Get())
	assert.Equal(t, readings.AbsoluteHumidity, env.Prefs.HumidityUnit.Get())
	assert.Equal(t, "Hebdomadaire", env.Prefs.AlertFrequency.Get())
	assert.Equal(t, "Brest", env.Prefs.DefaultCity.Get())
	assert.False(t, env.Prefs.OnboardingDone(), "the command sets the flag, not the prompts")
}

func TestWebURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", webURL(":8080"))
}
