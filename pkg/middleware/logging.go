// Package middleware provides reusable chain entries for crosshttp apps:
// request logging, per-client rate limiting and prometheus metrics.
package middleware

import (
	"time"

	"crosshttp/pkg/httpx"
	"crosshttp/pkg/logger"
)

// Logging records method, path, status and duration for every dispatched
// request. It runs around the rest of the chain, so the status it logs
// is whatever the handler flushed (0 when no head went out).
func Logging() httpx.Middleware {
	return func(req *httpx.Request, res *httpx.Response, next httpx.Next) error {
		start := time.Now()
		err := next()
		logger.Info("request",
			"method", req.Method,
			"path", req.Path,
			"status", res.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", req.RemoteAddr,
		)
		return err
	}
}
