/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// boardURL rebuilds the public URL of the board page from a request to one
// of its sub-routes. A proxy may only switch the scheme between http and
// https.
func boardURL(r *http.Request, suffix string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	switch proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto {
	case "http", "https":
		scheme = proto
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, suffix)
}

// serveQR generates a PNG QR code for the board URL, so the board can be
// handed off to another screen.
func serveQR(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validBoardID(ps.ByName("boardid")) {
			http.NotFound(w, r)

			return
		}

		png, err := qrcode.Encode(boardURL(r, "/qr"), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}
	}
}
