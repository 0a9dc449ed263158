package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/octobees/mapleads/internal/config"
)

const minLimiterIdle = time.Minute

// RateLimiter applies a token bucket per client IP to requests matching route
// path. Other routes pass through. Buckets of idle clients are evicted once
// they would have refilled anyway.
func RateLimiter(path string, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return next(c)
			}
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}

	idle := max(cfg.Interval, minLimiterIdle)
	limiters := gocache.New(idle, idle)

	limiterFor := func(ip string) *rate.Limiter {
		if v, ok := limiters.Get(ip); ok {
			limiters.SetDefault(ip, v)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Every(perRequest), cfg.Requests)
		if err := limiters.Add(ip, l, gocache.DefaultExpiration); err != nil {
			// Another request for the same client won the race.
			if v, ok := limiters.Get(ip); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() != path {
				return next(c)
			}

			if !limiterFor(c.RealIP()).Allow() {
				return reject(c, http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
