package api

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty"`
}

// User represents an account as returned by the API
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// AdminDashboard holds the admin overview counters
type AdminDashboard struct {
	TotalSensors     int `json:"total_sensors"`
	ActiveSensors    int `json:"active_sensors"`
	UnresolvedAlerts int `json:"unresolved_alerts"`
	TotalUsers       int `json:"total_users"`
}

// LastMeasurement is the most recent reading embedded in a sensor listing
type LastMeasurement struct {
	Temperature    *float64 `json:"temperature"`
	Humidity       *float64 `json:"humidity"`
	Pressure       *float64 `json:"pressure"`
	BatteryVoltage *float64 `json:"battery_voltage"`
	Time           *string  `json:"time"`
}

// Sensor represents a registered sensor
type Sensor struct {
	ID              int              `json:"id"`
	MACAddress      string           `json:"mac_address"`
	Name            string           `json:"name"`
	IsActive        bool             `json:"is_active"`
	BatteryLevel    *float64         `json:"battery_level"`
	FirmwareVersion *string          `json:"firmware_version"`
	LastSeen        *string          `json:"last_seen"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	LastMeasurement *LastMeasurement `json:"last_measurement"`
}

// CreateSensorRequest represents the sensor creation request
type CreateSensorRequest struct {
	MACAddress      string   `json:"mac_address"`
	Name            string   `json:"name,omitempty"`
	FirmwareVersion string   `json:"firmware_version,omitempty"`
	BatteryLevel    *float64 `json:"battery_level,omitempty"`
}

// UpdateSensorRequest represents editable sensor fields
type UpdateSensorRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Measurement is one reading of a sensor
type Measurement struct {
	Time            string   `json:"time"`
	Temperature     *float64 `json:"temperature"`
	Humidity        *float64 `json:"humidity"`
	Pressure        *float64 `json:"pressure"`
	AccelerationX   *float64 `json:"acceleration_x"`
	AccelerationY   *float64 `json:"acceleration_y"`
	AccelerationZ   *float64 `json:"acceleration_z"`
	RSSI            *float64 `json:"rssi"`
	BatteryVoltage  *float64 `json:"battery_voltage"`
	MovementCounter *int     `json:"movement_counter"`
}

// SensorMeasurements is a page of measurements of one sensor
type SensorMeasurements struct {
	SensorID         int           `json:"sensor_id"`
	SensorName       string        `json:"sensor_name"`
	SensorMAC        string        `json:"sensor_mac"`
	MeasurementCount int           `json:"measurement_count"`
	Measurements     []Measurement `json:"measurements"`
}

// LatestMeasurement is a measurement with its age
type LatestMeasurement struct {
	Measurement
	AgeSeconds float64 `json:"age_seconds"`
}

// SensorLatest is the latest reading of one sensor
type SensorLatest struct {
	SensorID    int                `json:"sensor_id"`
	SensorName  string             `json:"sensor_name"`
	SensorMAC   string             `json:"sensor_mac"`
	Measurement *LatestMeasurement `json:"measurement"`
	Message     string             `json:"message,omitempty"`
}

// Aggregate holds the average/min/max of a quantity
type Aggregate struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// SensorStats summarizes a sensor over a period
type SensorStats struct {
	SensorID         int    `json:"sensor_id"`
	SensorName       string `json:"sensor_name"`
	PeriodHours      int    `json:"period_hours"`
	MeasurementCount int    `json:"measurement_count"`
	Statistics       struct {
		Temperature Aggregate `json:"temperature"`
		Humidity    Aggregate `json:"humidity"`
		Pressure    Aggregate `json:"pressure"`
		Battery     struct {
			Average float64 `json:"average"`
		} `json:"battery"`
	} `json:"statistics"`
}

// MeasurementQuery filters a measurements request
type MeasurementQuery struct {
	Limit     int
	Hours     int
	StartDate string
	EndDate   string
}
