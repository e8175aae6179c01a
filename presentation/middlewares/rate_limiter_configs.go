package middlewares

import (
	"time"

	"github.com/hilthontt/burnchat/infrastructure/config"
)

// StrictRateLimiterConfig guards invite redemption and room creation.
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "strict",
		RequestsPerWindow: 10,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 15,
	}
}

// ModerateRateLimiterConfig is derived from the rateLimiter config section.
func ModerateRateLimiterConfig(cfg config.RateLimiterConfig) RateLimiterConfig {
	limiter := RateLimiterConfig{
		Name:              "moderate",
		RequestsPerWindow: 60,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 5,
	}
	if cfg.Limit > 0 {
		limiter.RequestsPerWindow = cfg.Limit
	}
	if cfg.Window > 0 {
		limiter.Window = cfg.Window
	}
	return limiter
}

func MessageSendingRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "messages",
		RequestsPerWindow: 30,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 10,
	}
}
