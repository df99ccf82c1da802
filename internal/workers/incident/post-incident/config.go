// internal/workers/incident/post-incident/config.go
package postincident

import "time"

// Timeout bounds job handling; the webhook call has its own bound.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 35 * time.Second,
	}
}
