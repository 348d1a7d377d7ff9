// Package weather looks up the current outdoor temperature of a city on
// OpenWeather. Responses are cached for CacheExpire seconds.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog"
)

// CacheExpire is the lifetime of a cached response, in seconds
const CacheExpire = 10 * 60

// ErrNoAPIKey is returned when no OpenWeather key is configured
var ErrNoAPIKey = errors.New("weather API key not configured")

// ErrLookupFailed wraps every failure to obtain a temperature
var ErrLookupFailed = errors.New("impossible de récupérer les données météo")

// Current is the current weather of a city, in metric units
type Current struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
}

type apiResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
}

func (r apiResponse) current() Current {
	return Current{
		City:        r.Name,
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
	}
}

// Client queries OpenWeather
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *freecache.Cache
	logger     zerolog.Logger
}

// New creates a Client with a cache of cacheSizeMegabytes
func New(baseURL, apiKey string, cacheSizeMegabytes int, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		cache:      freecache.NewCache(cacheSizeMegabytes * 1024 * 1024),
		logger:     logger,
	}
}

// SetHTTPClient replaces the HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Current returns the current weather of city
func (c *Client) Current(ctx context.Context, city string) (Current, error) {
	if c.apiKey == "" {
		return Current{}, ErrNoAPIKey
	}

	cacheKey := []byte("current::" + strings.ToLower(strings.TrimSpace(city)))
	if cached, err := c.cache.Get(cacheKey); err == nil {
		var resp apiResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			c.logger.Debug().Str("city", city).Msg("Weather served from cache")
			return resp.current(), nil
		}
		c.logger.Error().Err(err).Str("city", city).Msg("Failed to unmarshal cached weather")
	}

	body, err := c.fetch(ctx, city)
	if err != nil {
		return Current{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Current{}, fmt.Errorf("%w: failed to parse response: %w", ErrLookupFailed, err)
	}

	if err := c.cache.Set(cacheKey, body, CacheExpire); err != nil {
		c.logger.Warn().Err(err).Str("city", city).Msg("Failed to cache weather")
	}

	return resp.current(), nil
}

// Temperature returns the current temperature of city in °C
func (c *Client) Temperature(ctx context.Context, city string) (float64, error) {
	cur, err := c.Current(ctx, city)
	if err != nil {
		return 0, err
	}
	return cur.Temperature, nil
}

func (c *Client) fetch(ctx context.Context, city string) ([]byte, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("city", city).Msg("Calling weather API")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned HTTP %d", resp.StatusCode)
	}
	return body, nil
}
