package warera

import "time"

// Config holds configuration for the remote game API.
type Config struct {
	// BaseURL is the API root; tRPC procedures live under /trpc.
	BaseURL string `mapstructure:"base_url" default:"https://api2.warera.io"`
	// Token is the bearer credential sent verbatim in the Authorization header.
	// When empty, the token stored in the database is used.
	Token string `mapstructure:"token" default:""`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"Mozilla/5.0 (X11; Linux x86_64; rv:137.0) Gecko/20100101 Firefox/137.0"`
	// MinDelayMs and MaxDelayMs bound the random pause before each request.
	MinDelayMs int `mapstructure:"min_delay_ms" default:"2000"`
	MaxDelayMs int `mapstructure:"max_delay_ms" default:"8000"`
	// TimeoutSeconds bounds a single request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
