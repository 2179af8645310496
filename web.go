/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

// secure sets the response headers shared by every route before handing the
// request on.
func secure(cfg *Config, next http.Handler) http.Handler {
	hsts := cfg.scheme() == "https"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self'; connect-src 'self'; img-src 'self'")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		h.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=()")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-Content-Type-Options", "nosniff")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// realIP returns the address a request came from, preferring the headers
// set by a fronting proxy.
func realIP(r *http.Request) string {
	for _, header := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if ip := net.ParseIP(r.Header.Get(header)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// newRouter registers every route. The returned manager owns the boards
// served by the handler.
func newRouter(cfg *Config, errs chan<- error) (http.Handler, *BoardManager) {
	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		logger.WithField("panic", i).Error("SERVE: Recovered from panic")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)

		_, _ = io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg))
	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))
	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(errs))
	mux.GET(cfg.prefix+"/favicon.svg", serveFavicons(errs))
	mux.GET(cfg.prefix+"/healthz", serveText("Ok\n", false, errs))
	mux.GET(cfg.prefix+"/robots.txt", serveText("User-agent: *\nDisallow: /board/\n", true, errs))
	mux.GET(cfg.prefix+"/version", serveText("papergrid v"+releaseVersion+"\n", false, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	bm := newBoardManager(cfg)
	registerBoards(cfg, "/board", mux, bm, errs)

	return secure(cfg, mux), bm
}

func listen(cfg *Config, srv *http.Server) error {
	logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)

	var err error
	if cfg.scheme() == "https" {
		err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
	} else {
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// ServePage runs the server until ctx is done or the listener fails, then
// shuts down and closes every board.
func ServePage(ctx context.Context, cfg *Config) error {
	if tz := os.Getenv("TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return err
		}
		time.Local = loc
	}

	logf(cfg, "START: papergrid v%s", releaseVersion)

	errs := make(chan error, 64)
	handler, bm := newRouter(cfg, errs)
	defer bm.stopAll()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           handler,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	go bm.reaperLoop(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				logger.WithError(err).Warn("SERVE: Failed to write response")
			}
		}
	}()

	failed := make(chan error, 1)
	go func() {
		failed <- listen(cfg, srv)
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
