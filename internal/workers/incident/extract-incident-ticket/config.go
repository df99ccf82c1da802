// internal/workers/incident/extract-incident-ticket/config.go
package extractincidentticket

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
