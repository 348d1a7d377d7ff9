package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListSensors returns the sensors, optionally only the active ones
func (c *Client) ListSensors(ctx context.Context, activeOnly bool) ([]Sensor, error) {
	var sensors []Sensor
	path := fmt.Sprintf("/sensors?active_only=%t", activeOnly)
	if err := c.do(ctx, http.MethodGet, path, nil, &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// GetSensor returns one sensor
func (c *Client) GetSensor(ctx context.Context, id int) (*Sensor, error) {
	var sensor Sensor
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sensors/%d", id), nil, &sensor); err != nil {
		return nil, err
	}
	return &sensor, nil
}

// CreateSensor registers a new sensor
func (c *Client) CreateSensor(ctx context.Context, req CreateSensorRequest) (*Sensor, error) {
	var sensor Sensor
	if err := c.do(ctx, http.MethodPost, "/sensors/", req, &sensor); err != nil {
		return nil, err
	}
	return &sensor, nil
}

// UpdateSensor edits a sensor
func (c *Client) UpdateSensor(ctx context.Context, id int, req UpdateSensorRequest) (*Sensor, error) {
	var sensor Sensor
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/sensors/%d", id), req, &sensor); err != nil {
		return nil, err
	}
	return &sensor, nil
}

// DeleteSensor removes a sensor
func (c *Client) DeleteSensor(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/sensors/%d", id), nil, nil)
}

// SensorMeasurements returns the measurements of a sensor matching q
func (c *Client) SensorMeasurements(ctx context.Context, id int, q MeasurementQuery) (*SensorMeasurements, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Hours > 0 {
		params.Set("hours", strconv.Itoa(q.Hours))
	}
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}

	path := fmt.Sprintf("/sensors/%d/measurements", id)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp SensorMeasurements
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SensorLatest returns the latest measurement of a sensor
func (c *Client) SensorLatest(ctx context.Context, id int) (*SensorLatest, error) {
	var resp SensorLatest
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sensors/%d/latest", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SensorStats returns aggregates of a sensor over the last hours
func (c *Client) SensorStats(ctx context.Context, id, hours int) (*SensorStats, error) {
	if hours <= 0 {
		hours = 24
	}
	var resp SensorStats
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sensors/%d/stats?hours=%d", id, hours), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
