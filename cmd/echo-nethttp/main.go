package main

import (
	"flag"
	"fmt"
	"net/http"

	"crosshttp/pkg/httpx"
	"crosshttp/pkg/logger"
)

func main() {
	port := flag.Int("port", 8082, "listen port for the net/http echo demo")
	flag.Parse()
	logger.Init()

	app := httpx.New()
	app.Get("/healthz", func(req *httpx.Request, res *httpx.Response) error {
		return res.SendJSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	app.Post("/echo", func(req *httpx.Request, res *httpx.Response) error {
		body, err := req.Text()
		if err != nil {
			return err
		}
		return res.SendText(http.StatusOK, body)
	})

	fmt.Printf("net/http echo demo listening on :%d\n", *port)
	if err := httpx.Serve(app, *port); err != nil {
		fmt.Printf("net/http server exit: %v\n", err)
	}
}
