package httpx

import (
	"errors"
	"net/http"
	"sync"
	"testing"
)

func newPair(method, url string) (*Request, *Response, *recordTransport) {
	tr := &recordTransport{}
	return NewRequest(method, url, nil), NewResponse(tr), tr
}

func TestDispatchExactMatch(t *testing.T) {
	app := New()
	called := ""
	app.Get("/x", func(req *Request, res *Response) error {
		called = "get"
		return res.SendText(http.StatusOK, "ok")
	})
	app.Post("/x", func(req *Request, res *Response) error {
		called = "post"
		return res.SendText(http.StatusOK, "ok")
	})

	req, res, _ := newPair("POST", "/x")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if called != "post" {
		t.Fatalf("expected post handler, got %q", called)
	}
}

func TestDispatchAllFallback(t *testing.T) {
	app := New()
	app.All("/any", func(req *Request, res *Response) error {
		return res.SendText(http.StatusOK, "any")
	})
	app.Get("/any", func(req *Request, res *Response) error {
		return res.SendText(http.StatusOK, "get")
	})

	// exact method wins over ALL
	req, res, tr := newPair("GET", "/any")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if tr.body.String() != "get" {
		t.Fatalf("expected exact-method handler, got %q", tr.body.String())
	}

	// other methods fall back to ALL
	req, res, tr = newPair("DELETE", "/any")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if tr.body.String() != "any" {
		t.Fatalf("expected ALL handler, got %q", tr.body.String())
	}
}

func TestDispatchMissIs404(t *testing.T) {
	app := New()
	req, res, tr := newPair("GET", "/nope")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("expected no error for unmatched route, got %v", err)
	}
	if tr.status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", tr.status)
	}
	if tr.body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", tr.body.String())
	}
}

func TestRouteReRegistrationLastWins(t *testing.T) {
	app := New()
	app.Get("/x", func(req *Request, res *Response) error {
		return res.SendText(http.StatusOK, "A")
	})
	app.Get("/x", func(req *Request, res *Response) error {
		return res.SendText(http.StatusOK, "B")
	})

	req, res, tr := newPair("GET", "/x")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if tr.body.String() != "B" {
		t.Fatalf("expected B to replace A, got %q", tr.body.String())
	}
}

func TestMiddlewareOrdering(t *testing.T) {
	app := New()
	var order []string
	app.Use(func(req *Request, res *Response, next Next) error {
		order = append(order, "m1-before")
		err := next()
		order = append(order, "m1-after")
		return err
	})
	app.Use(func(req *Request, res *Response, next Next) error {
		order = append(order, "m2-before")
		err := next()
		order = append(order, "m2-after")
		return err
	})
	app.Get("/x", func(req *Request, res *Response) error {
		order = append(order, "handler")
		return res.SendText(http.StatusOK, "ok")
	})

	req, res, _ := newPair("GET", "/x")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	want := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestMiddlewareObservesStatusAfterNext(t *testing.T) {
	app := New()
	seen := -1
	app.Use(func(req *Request, res *Response, next Next) error {
		err := next()
		seen = res.Status()
		return err
	})
	app.Get("/x", func(req *Request, res *Response) error {
		return res.SendText(http.StatusTeapot, "tea")
	})

	req, res, _ := newPair("GET", "/x")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if seen != http.StatusTeapot {
		t.Fatalf("expected middleware to observe 418 after next, got %d", seen)
	}
}

func TestMiddlewareEarlyTermination(t *testing.T) {
	app := New()
	handlerRan := false
	secondRan := false
	app.Use(func(req *Request, res *Response, next Next) error {
		// never calls next: chain stops here
		return res.SendText(http.StatusForbidden, "no")
	})
	app.Use(func(req *Request, res *Response, next Next) error {
		secondRan = true
		return next()
	})
	app.Get("/x", func(req *Request, res *Response) error {
		handlerRan = true
		return nil
	})

	req, res, tr := newPair("GET", "/x")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if handlerRan || secondRan {
		t.Fatalf("expected chain terminated before later entries (handler=%v m2=%v)", handlerRan, secondRan)
	}
	if tr.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", tr.status)
	}
}

func TestConcurrentRequestsIndependent(t *testing.T) {
	app := New()
	app.Use(func(req *Request, res *Response, next Next) error {
		if req.Query.Get("block") == "1" {
			return res.SendText(http.StatusForbidden, "blocked")
		}
		return next()
	})
	app.Get("/x", func(req *Request, res *Response) error {
		return res.SendText(http.StatusOK, "ok")
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		blocked := i%2 == 0
		go func() {
			defer wg.Done()
			url := "/x"
			if blocked {
				url = "/x?block=1"
			}
			req, res, tr := newPair("GET", url)
			if err := app.Handle(req, res); err != nil {
				t.Errorf("Handle failed: %v", err)
				return
			}
			want := http.StatusOK
			if blocked {
				want = http.StatusForbidden
			}
			if tr.status != want {
				t.Errorf("expected %d, got %d", want, tr.status)
			}
		}()
	}
	wg.Wait()
}

func TestHandlerErrorPropagates(t *testing.T) {
	app := New()
	boom := errors.New("boom")
	app.Use(func(req *Request, res *Response, next Next) error {
		return next()
	})
	app.Get("/x", func(req *Request, res *Response) error {
		return boom
	})

	req, res, _ := newPair("GET", "/x")
	if err := app.Handle(req, res); !errors.Is(err, boom) {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
}

func TestFluentRegistration(t *testing.T) {
	app := New()
	ret := app.Get("/a", func(req *Request, res *Response) error { return nil }).
		Post("/b", func(req *Request, res *Response) error { return nil }).
		Use(func(req *Request, res *Response, next Next) error { return next() })
	if ret != app {
		t.Fatalf("expected registration to return the same App")
	}
}

func TestNoMiddlewareDirectInvoke(t *testing.T) {
	app := New()
	app.Put("/y", func(req *Request, res *Response) error {
		return res.SendText(http.StatusOK, "put")
	})
	req, res, tr := newPair("PUT", "/y")
	if err := app.Handle(req, res); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if tr.body.String() != "put" {
		t.Fatalf("expected direct handler invoke, got %q", tr.body.String())
	}
}
