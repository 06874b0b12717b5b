package api

import "time"

// Config holds connection settings for the editorial API.
type Config struct {
	BaseURL   string
	Token     string
	TimeoutMs int
	// MaxRetries applies to GET requests only. Writes are single-attempt.
	MaxRetries int
}

// DefaultConfig returns a Config pointing at a local API.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8080",
		TimeoutMs:  10000,
		MaxRetries: 1,
	}
}

func (c Config) timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return time.Duration(DefaultConfig().TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
