/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	maxMessageSize = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	writeWait      = 10 * time.Second
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is one browser view of a board.
type Client struct {
	id    string
	conn  *websocket.Conn
	send  chan any
	moves *rate.Limiter
}

func newClient(cfg *Config, conn *websocket.Conn) *Client {
	burst := int(cfg.moveRate)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		id:    uuid.NewString(),
		conn:  conn,
		send:  make(chan any, sendBuffer),
		moves: rate.NewLimiter(rate.Limit(cfg.moveRate), burst),
	}
}

// throttled reports whether msg should be dropped to keep pointer moves under
// the configured rate. Moves that clear the highlight always pass, or a
// dropped one would leave a node lit after the pointer leaves the paper.
func (c *Client) throttled(msg ClientMessage) bool {
	if msg.Type != "pointer_move" || msg.Node == nil {
		return false
	}

	return !c.moves.Allow()
}

func (c *Client) fields(h *Hub) logrus.Fields {
	return logrus.Fields{"board": h.id, "viewer": c.id}
}

// WebSocket handler that picks the hub based on :boardid
func serveWSForManager(cfg *Config, bm *BoardManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		boardID := ps.ByName("boardid")
		if !validBoardID(boardID) {
			http.Error(w, "invalid board id", http.StatusNotFound)
			return
		}

		hub, err := bm.getHub(boardID)
		if err != nil {
			http.Error(w, "unable to start board", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).WithField("board", boardID).Warn("SERVE: WebSocket upgrade failed")
			return
		}

		client := newClient(cfg, conn)

		logf(cfg, "SERVE: Viewer %s connected to %s from %s", client.id, boardID, realIP(r))

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "board closed"))
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.WithFields(c.fields(h)).WithError(err).Warn("SERVE: WebSocket read failed")
			}
			return
		}

		if c.throttled(msg) {
			continue
		}

		select {
		case h.events <- clientEvent{client: c, msg: msg}:
		case <-h.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
