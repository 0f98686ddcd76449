package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a wrapper around time.Duration that accepts either a numeric
// nanosecond value or a Go duration string in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ServerConfig represents the configuration for the API server daemon.
type ServerConfig struct {
	ListenAddr string   `json:"listen_addr"` // e.g., :5000
	DBPath     string   `json:"db_path"`
	JWTSecret  string   `json:"jwt_secret"`
	TokenTTL   Duration `json:"token_ttl"`  // bearer credential validity
	LogLevel   string   `json:"log_level"`  // debug|info|warn|error
	LogFormat  string   `json:"log_format"` // json|console
}

// Validate implements config.Validator interface.
func (c *ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}

	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}

	if time.Duration(c.TokenTTL) == 0 {
		c.TokenTTL = Duration(24 * time.Hour)
	}

	return nil
}

// DashboardConfig represents the configuration for the dashboard client.
type DashboardConfig struct {
	ServerAddress   string   `json:"server_address"` // base URL of the API server
	Company         string   `json:"company"`        // initial company filter, "all" for none
	RefreshInterval Duration `json:"refresh_interval"`
	RequestTimeout  Duration `json:"request_timeout"`
	LogLevel        string   `json:"log_level"`
	LogFormat       string   `json:"log_format"`
}

// Validate implements config.Validator interface.
func (c *DashboardConfig) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address is required")
	}

	if time.Duration(c.RefreshInterval) == 0 {
		c.RefreshInterval = Duration(30 * time.Second)
	}

	if time.Duration(c.RequestTimeout) == 0 {
		c.RequestTimeout = Duration(10 * time.Second)
	}

	return nil
}
