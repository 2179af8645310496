/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoardID = "AbCd1234"

func newTestServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()

	errs := make(chan error, 64)
	mux, bm := newRouter(cfg, errs)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		bm.stopAll()
		srv.Close()
	})

	return srv
}

var noRedirects = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()

	resp, err := noRedirects.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func TestStaticRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", string(body))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))

	resp, body = get(t, srv.URL+"/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "papergrid v"+releaseVersion+"\n", string(body))

	resp, body = get(t, srv.URL+"/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Disallow: /board/")

	resp, body = get(t, srv.URL+"/favicon.svg")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")

	resp, _ = get(t, srv.URL+"/assets/board/app.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/javascript; charset=utf-8", resp.Header.Get("Content-Type"))

	resp, _ = get(t, srv.URL+"/assets/board/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/pprof/heap")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "profiling is off by default")
}

func TestNewBoardRedirects(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, _ := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/board", resp.Header.Get("Location"))

	resp, _ = get(t, srv.URL+"/board")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Regexp(t, regexp.MustCompile(`^/board/[A-Za-z0-9]{8}$`), resp.Header.Get("Location"))
}

func TestBoardPage(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := get(t, srv.URL+"/board/"+testBoardID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<canvas")

	for _, path := range []string{"/board/short", "/board/short/state", "/board/short/qr"} {
		resp, _ = get(t, srv.URL+path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestBoardState(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, _ := get(t, srv.URL+"/board/"+testBoardID+"/state")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "boards nobody opened have no state")

	conn := dial(t, srv)
	assert.Equal(t, "session_info", read(t, conn).Type)

	resp, body := get(t, srv.URL+"/board/"+testBoardID+"/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var snap BoardMessage
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "board", snap.Type)
	assert.Equal(t, "A5", snap.Page.Name)
	assert.Equal(t, 29, snap.Columns)
	assert.Equal(t, 41, snap.Rows)
	assert.Len(t, snap.Players, 3)
	assert.NotNil(t, snap.Claims)
}

func TestBoardQR(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := get(t, srv.URL+"/board/"+testBoardID+"/qr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestBoardURL(t *testing.T) {
	tests := []struct {
		name  string
		proto string
		want  string
	}{
		{"direct", "", "http://example.com/board/" + testBoardID},
		{"behind tls proxy", "https", "https://example.com/board/" + testBoardID},
		{"uppercase", "HTTPS", "https://example.com/board/" + testBoardID},
		{"unknown scheme", "javascript", "http://example.com/board/" + testBoardID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example.com/board/"+testBoardID+"/qr", nil)
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			assert.Equal(t, tt.want, boardURL(r, "/qr"))
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, _ := get(t, srv.URL+"/no/such/route")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'")

	cfg := testConfig()
	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"

	rec := httptest.NewRecorder()
	secure(cfg, http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", realIP(r))

	r.Header.Set("X-Real-IP", "not an ip")
	assert.Equal(t, "192.0.2.1", realIP(r))

	r.Header.Set("X-Real-IP", "2001:db8::1")
	assert.Equal(t, "2001:db8::1", realIP(r))

	r.Header.Set("CF-Connecting-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", realIP(r))
}

func TestPrefix(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/papergrid/"
	srv := newTestServer(t, cfg)

	resp, _ := get(t, srv.URL+"/papergrid/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/papergrid/")
	assert.Equal(t, "/papergrid/board", resp.Header.Get("Location"))

	resp, _ = get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type wireMessage struct {
	Type       string        `json:"type"`
	Generation uint64        `json:"generation"`
	Message    string        `json:"message"`
	Active     PlayerState   `json:"active"`
	Player     PlayerState   `json:"player"`
	Node       *NodeRef      `json:"node"`
	Claims     []ClaimState  `json:"claims"`
	Players    []PlayerState `json:"players"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/board/" + testBoardID + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestWebSocketGame(t *testing.T) {
	srv := newTestServer(t, testConfig())
	conn := dial(t, srv)

	assert.Equal(t, "session_info", read(t, conn).Type)

	snap := read(t, conn)
	require.Equal(t, "board", snap.Type)

	click := ClientMessage{
		Type: "pointer_click",
		Node: &NodeRef{Generation: snap.Generation, Column: 3, Row: 4},
	}
	require.NoError(t, conn.WriteJSON(click))

	turn := read(t, conn)
	assert.Equal(t, "turn", turn.Type)
	assert.Equal(t, 1, turn.Active.Index)

	claimed := read(t, conn)
	assert.Equal(t, "claimed", claimed.Type)
	assert.Equal(t, click.Node, claimed.Node)
	assert.Equal(t, 0, claimed.Player.Index)

	resp, body := get(t, srv.URL+"/board/"+testBoardID+"/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state BoardMessage
	require.NoError(t, json.Unmarshal(body, &state))
	require.Len(t, state.Claims, 1)
	assert.Equal(t, 3, state.Claims[0].Column)
	assert.Equal(t, 4, state.Claims[0].Row)
}

func TestWebSocketHandOff(t *testing.T) {
	srv := newTestServer(t, testConfig())

	first := dial(t, srv)
	assert.Equal(t, "session_info", read(t, first).Type)
	assert.Equal(t, "board", read(t, first).Type)

	second := dial(t, srv)
	assert.Equal(t, "session_info", read(t, second).Type)
	assert.Equal(t, "board", read(t, second).Type)

	moved := read(t, first)
	assert.Equal(t, "moved", moved.Type)
	assert.NotEmpty(t, moved.Message)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error %v", err)
}
