/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

//go:embed assets/*
var assets embed.FS

func cacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
}

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		http.Redirect(w, r, cfg.prefix+"/board", http.StatusTemporaryRedirect)
	}
}

// serveText writes a fixed plain-text body.
func serveText(body string, cache bool, errs chan<- error) httprouter.Handle {
	length := strconv.Itoa(len(body))

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if cache {
			cacheHeaders(w)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", length)

		if _, err := io.WriteString(w, body); err != nil {
			errs <- err
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, cfg.prefix), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		cacheHeaders(w)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))

		ext := strings.ToLower(filepath.Ext(fname))
		switch ext {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

// redirectNewBoard handles GET /path by generating a new random board ID
// (with server-side collision detection) and redirecting to /path/:boardid.
func redirectNewBoard(cfg *Config, path string, bm *BoardManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		boardID := bm.newBoardID()
		logf(cfg, "BOARD: Created board %s/%s for %s", path, boardID, realIP(r))
		http.Redirect(w, r, cfg.prefix+path+"/"+boardID, http.StatusTemporaryRedirect)
	}
}

func serveBoardPage(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validBoardID(ps.ByName("boardid")) {
			http.NotFound(w, r)

			return
		}

		data, err := assets.ReadFile("assets/board/index.html")
		if err != nil {
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

// serveBoardState returns the board snapshot as JSON, for views that poll
// instead of holding a WebSocket open. Only boards that have been opened
// have a state.
func serveBoardState(bm *BoardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		boardID := ps.ByName("boardid")
		if !validBoardID(boardID) {
			http.NotFound(w, r)

			return
		}

		hub, ok := bm.lookup(boardID)
		if !ok {
			http.NotFound(w, r)

			return
		}

		snapshot, err := hub.snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			errs <- err

			return
		}
	}
}

// registerBoards sets up routes so that:
//   - $path                  → redirects to a new random board (8-char ID)
//   - $path/:boardid         → HTML client
//   - $path/:boardid/ws      → WebSocket for that board
//   - $path/:boardid/state   → JSON snapshot of that board
//   - $path/:boardid/qr      → PNG QR code for that board URL
func registerBoards(cfg *Config, path string, mux *httprouter.Router, bm *BoardManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewBoard(cfg, path, bm))

	mux.GET(cfg.prefix+path+"/:boardid", serveBoardPage(errs))

	mux.GET(cfg.prefix+path+"/:boardid/ws", serveWSForManager(cfg, bm))

	mux.GET(cfg.prefix+path+"/:boardid/state", serveBoardState(bm, errs))

	mux.GET(cfg.prefix+path+"/:boardid/qr", serveQR(errs))
}
