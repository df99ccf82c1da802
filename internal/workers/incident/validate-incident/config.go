// internal/workers/incident/validate-incident/config.go
package validateincident

import "time"

// Validation is local, so Timeout only bounds job handling.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
