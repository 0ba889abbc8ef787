package middleware

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"crosshttp/pkg/httpx"
	"crosshttp/pkg/logger"
)

type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.rps
	if rps <= 0 {
		rps = 5
	}
	burst := p.burst
	if burst <= 0 {
		burst = 10
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

// RateLimit rejects requests over the per-client token budget with a 429
// and terminates the chain; handlers behind it never run for rejected
// requests. Clients are keyed by remote IP.
func RateLimit(rps float64, burst int) httpx.Middleware {
	pool := &limiterPool{rps: rps, burst: burst}
	return func(req *httpx.Request, res *httpx.Response, next httpx.Next) error {
		key := req.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !pool.Allow(key) {
			logger.Warn("request_rate_limited", "remote", key, "path", req.Path)
			return res.SendText(http.StatusTooManyRequests, "too many requests")
		}
		return next()
	}
}
