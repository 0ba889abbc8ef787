// Package app assembles and runs the crosshttpd demo server: a crosshttp
// App with example routes, middleware wired from config, and a choice of
// host transport.
package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"

	"crosshttp/pkg/config"
	"crosshttp/pkg/httpx"
	"crosshttp/pkg/logger"
	"crosshttp/pkg/middleware"
	"crosshttp/pkg/session"
)

// App is the running server: effective config, session store and the
// active host transport.
type App struct {
	eff     *config.EffectiveConfigResult
	version string

	store *session.Store
	srv   *http.Server
	fsrv  *fasthttp.Server
}

// New builds an App from the effective config.
func New(eff *config.EffectiveConfigResult, version string) *App {
	return &App{eff: eff, version: version}
}

// Run starts the server and blocks until ctx is cancelled or the
// transport fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	cfg := a.eff.Config

	web := httpx.New()
	web.Use(middleware.Logging())
	web.Use(middleware.Metrics(prometheus.DefaultRegisterer))
	if cfg.Limits.RPS > 0 {
		web.Use(middleware.RateLimit(cfg.Limits.RPS, cfg.Limits.Burst))
	}

	var stopGC context.CancelFunc
	if cfg.Session.Enabled {
		ttl, err := cfg.SessionTTL()
		if err != nil {
			return err
		}
		dbPath := cfg.Session.DBPath
		if dbPath == "" {
			dbPath = "./.sessions"
		}
		store, err := session.Open(dbPath, ttl)
		if err != nil {
			return err
		}
		a.store = store
		defer func() { _ = store.Close() }()
		web.Use(session.Middleware(store, session.Options{CookieName: cfg.Session.CookieName}))
		stopGC, err = session.StartGC(ctx, store, cfg.Session.GCSchedule)
		if err != nil {
			return err
		}
		defer stopGC()
	}

	a.registerRoutes(web)

	logger.Info("server_starting",
		"addr", a.eff.Addr,
		"transport", cfg.Server.Transport,
		"config_source", a.eff.Source,
		"version", a.version,
	)

	errCh := a.start(web)
	select {
	case <-ctx.Done():
		logger.Info("server_stopping")
		return a.shutdown()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// start launches the configured transport in a goroutine. The net/http
// transport also mounts the prometheus exposition endpoint beside the
// adapter; fasthttp runs the adapter alone.
func (a *App) start(web *httpx.App) <-chan error {
	errCh := make(chan error, 1)
	if a.eff.Config.Server.Transport == "fasthttp" {
		a.fsrv = &fasthttp.Server{Handler: httpx.FastHTTPAdapter(web)}
		go func() { errCh <- a.fsrv.ListenAndServe(a.eff.Addr) }()
		return errCh
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httpx.NetHTTPAdapter(web))
	a.srv = &http.Server{Addr: a.eff.Addr, Handler: mux}
	go func() { errCh <- a.srv.ListenAndServe() }()
	return errCh
}

func (a *App) shutdown() error {
	if a.fsrv != nil {
		return a.fsrv.Shutdown()
	}
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.srv.Shutdown(ctx)
	}
	return nil
}

func (a *App) registerRoutes(web *httpx.App) {
	web.Get("/healthz", func(req *httpx.Request, res *httpx.Response) error {
		return res.SendJSON(http.StatusOK, map[string]string{"status": "ok", "version": a.version})
	})

	web.Post("/echo", func(req *httpx.Request, res *httpx.Response) error {
		body, err := req.Text()
		if err != nil {
			return err
		}
		return res.SendText(http.StatusOK, body)
	})

	web.Get("/hello", func(req *httpx.Request, res *httpx.Response) error {
		name := req.Query.Get("name")
		if name == "" {
			name = "world"
		}
		return res.SendJSON(http.StatusOK, map[string]string{"msg": "hello " + name})
	})

	// streams one timestamp per second until the client goes away
	web.Get("/ticks", func(req *httpx.Request, res *httpx.Response) error {
		res.Header.Set("content-type", "text/plain; charset=utf-8")
		w := res.WriteHead(http.StatusOK)
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-res.Closed():
				return nil
			case now := <-tick.C:
				if _, err := w.WriteString(now.UTC().Format(time.RFC3339) + "\n"); err != nil {
					return nil
				}
			}
		}
	})

	web.All("/whoami", func(req *httpx.Request, res *httpx.Response) error {
		sess := session.FromRequest(req)
		if sess == nil {
			return res.SendJSON(http.StatusOK, map[string]string{"session": "disabled"})
		}
		n, _ := strconv.Atoi(sess.Values["visits"])
		n++
		sess.Values["visits"] = strconv.Itoa(n)
		return res.SendJSON(http.StatusOK, map[string]any{"session": sess.ID, "visits": n})
	})
}
