/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Papergrid boards
//
// A board is a sheet of paper covered in nodes, and a handful of players who
// take turns claiming them from a single shared screen.
//
// Features:
// - One hub goroutine per board ID: /board/:boardid and /board/:boardid/ws
// - The hub owns the board session and applies view events in order
// - One view drives a board at a time; opening the board elsewhere (for
//   example via its QR code) detaches the previous view
// - Stale node references from before a page change are rejected and the
//   view is sent a fresh snapshot
// - Boards are reaped after a configurable idle timeout
// - Random 8-char board IDs via crypto/rand, with server-side collision check

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/Seednode/papergrid/board"
	"github.com/sirupsen/logrus"
)

const (
	boardIDLength = 8
	boardIDChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var errBoardClosed = errors.New("board closed")

type clientEvent struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	cfg     *Config
	session *board.Session
	viewer  *Client

	register  chan *Client
	unreg     chan *Client
	events    chan clientEvent
	snapshots chan chan BoardMessage
	quit      chan struct{}
	stopOnce  sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, boardID string) (*Hub, error) {
	now := time.Now()

	h := &Hub{
		id:         boardID,
		cfg:        cfg,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		events:     make(chan clientEvent, 64),
		snapshots:  make(chan chan BoardMessage),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	session, err := board.NewSession(cfg.settings(), board.Hooks{
		PlayerAdded: func(p *board.Player) {
			h.send(PlayerMessage{Type: "player_added", Player: playerState(p)})
		},
		PlayerRemoved: func(p *board.Player) {
			h.send(PlayerMessage{Type: "player_removed", Player: playerState(p)})
		},
		PlayerRenamed: func(p *board.Player) {
			h.send(PlayerMessage{Type: "player_renamed", Player: playerState(p)})
		},
		ActiveChanged: func(p *board.Player) {
			h.send(TurnMessage{Type: "turn", Active: playerState(p)})
		},
	})
	if err != nil {
		return nil, err
	}
	h.session = session

	return h, nil
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.detach("This board has been closed.")
			return

		case c := <-h.register:
			h.touch()
			h.attach(c)

		case c := <-h.unreg:
			h.touch()
			if c == h.viewer {
				close(c.send)
				h.viewer = nil
			}

		case ev := <-h.events:
			// Events from a view that has since been replaced are dropped.
			if ev.client != h.viewer {
				continue
			}
			h.touch()
			h.handle(ev.msg)

		case reply := <-h.snapshots:
			reply <- boardSnapshot(h.session)
		}
	}
}

// stop ends the hub goroutine and detaches its view. It is safe to call more
// than once.
func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

// snapshot asks the hub goroutine for the current board state.
func (h *Hub) snapshot(ctx context.Context) (BoardMessage, error) {
	select {
	case <-h.quit:
		return BoardMessage{}, errBoardClosed
	default:
	}

	reply := make(chan BoardMessage, 1)

	select {
	case h.snapshots <- reply:
	case <-h.quit:
		return BoardMessage{}, errBoardClosed
	case <-ctx.Done():
		return BoardMessage{}, ctx.Err()
	}

	select {
	case msg := <-reply:
		return msg, nil
	case <-h.quit:
		return BoardMessage{}, errBoardClosed
	case <-ctx.Done():
		return BoardMessage{}, ctx.Err()
	}
}

// Everything below is only called from the hub goroutine.

// attach makes c the board's view, detaching any previous one.
func (h *Hub) attach(c *Client) {
	h.detach("This board was opened somewhere else.")

	h.viewer = c
	logf(h.cfg, "BOARD: Viewer %s attached to %s", c.id, h.id)

	h.send(SessionInfoMessage{
		Type:       "session_info",
		BoardID:    h.id,
		ViewerID:   c.id,
		PageSizes:  board.PageNames(),
		MinPlayers: board.MinPlayers,
		MaxPlayers: board.MaxPlayers,
	})
	h.send(boardSnapshot(h.session))
}

func (h *Hub) detach(reason string) {
	old := h.viewer
	if old == nil {
		return
	}

	select {
	case old.send <- SimpleMessage{Type: "moved", Message: reason}:
	default:
	}
	close(old.send)
	h.viewer = nil

	logf(h.cfg, "BOARD: Viewer %s detached from %s", old.id, h.id)
}

// send queues msg for the current view, dropping the view if it has fallen
// too far behind.
func (h *Hub) send(msg any) {
	c := h.viewer
	if c == nil {
		return
	}

	select {
	case c.send <- msg:
	default:
		logger.WithFields(logrus.Fields{"board": h.id, "viewer": c.id}).Warn("BOARD: Dropping slow viewer")
		close(c.send)
		h.viewer = nil
	}
}

func (h *Hub) fail(err error) {
	h.send(SimpleMessage{Type: "error", Message: err.Error()})

	if errors.Is(err, board.ErrStaleNode) {
		h.send(boardSnapshot(h.session))
	}
}

func (h *Hub) hit(ref *NodeRef) (board.Hit, error) {
	if ref == nil {
		return board.Hit{}, nil
	}

	n, err := h.session.Resolve(ref.Generation, ref.Column, ref.Row)
	if err != nil {
		return board.Hit{}, err
	}

	return board.Hit{Node: n}, nil
}

func (h *Hub) handle(msg ClientMessage) {
	switch msg.Type {
	case "pointer_move":
		h.handlePointerMove(msg)
	case "pointer_click":
		h.handlePointerClick(msg)
	case "settings":
		h.handleSettings(msg)
	case "rename":
		if err := h.session.Engine().Rename(msg.Index, msg.Name); err != nil {
			h.fail(err)
		}
	default:
		// ignore unknown types
	}
}

func (h *Hub) handlePointerMove(msg ClientMessage) {
	hit, err := h.hit(msg.Node)
	if err != nil {
		h.fail(err)
		return
	}

	hl, err := h.session.OnPointerMove(hit)
	if err != nil {
		h.fail(err)
		return
	}
	if !hl.Changed {
		return
	}

	out := HighlightMessage{
		Type:      "highlight",
		Neighbors: make([]NodeRef, 0, len(hl.Neighbors)),
	}
	if hl.Node != nil {
		ref := nodeRef(hl.Node)
		out.Node = &ref
	}
	for _, n := range hl.Neighbors {
		out.Neighbors = append(out.Neighbors, nodeRef(n))
	}

	h.send(out)
}

func (h *Hub) handlePointerClick(msg ClientMessage) {
	hit, err := h.hit(msg.Node)
	if err != nil {
		h.fail(err)
		return
	}

	claim, err := h.session.OnPointerClick(hit)
	if err != nil {
		h.fail(err)
		return
	}
	if claim.Player == nil {
		return
	}

	logf(h.cfg, "BOARD: %q claimed (%d,%d) on %s", claim.Player.Name(), claim.Node.Column, claim.Node.Row, h.id)

	h.send(ClaimedMessage{
		Type:   "claimed",
		Node:   nodeRef(claim.Node),
		Player: playerState(claim.Player),
	})
}

func (h *Hub) handleSettings(msg ClientMessage) {
	settings := h.session.Settings()

	if msg.Page != "" {
		page, err := board.LookupPageSize(msg.Page)
		if err != nil {
			h.fail(err)
			return
		}
		settings.Page = page
	}
	if msg.Players != nil {
		settings.Players = *msg.Players
	}

	change, err := h.session.OnSettingsChanged(settings)
	if err != nil {
		h.fail(err)
		return
	}

	if change.GridRebuilt {
		logf(h.cfg, "BOARD: Page of %s changed to %s", h.id, settings.Page.Name)
		h.send(boardSnapshot(h.session))
	}
	if change.PlayersResized {
		logf(h.cfg, "BOARD: Player count of %s changed to %d", h.id, settings.Players)
	}
}

// BoardManager holds a set of hubs keyed by board ID, so each /board/:boardid
// is its own isolated session.
type BoardManager struct {
	mu          sync.Mutex
	cfg         *Config
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newBoardManager(cfg *Config) *BoardManager {
	return &BoardManager{
		cfg:         cfg,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
	}
}

func validBoardID(id string) bool {
	if len(id) != boardIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// getHub returns the hub for boardID, starting a fresh board if there is
// none, e.g. after the previous one was reaped.
func (bm *BoardManager) getHub(boardID string) (*Hub, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if hub, ok := bm.hubs[boardID]; ok {
		return hub, nil
	}

	hub, err := newHub(bm.cfg, boardID)
	if err != nil {
		return nil, err
	}
	bm.hubs[boardID] = hub
	go hub.run()

	logf(bm.cfg, "BOARD: Started board %s", boardID)

	return hub, nil
}

// lookup returns the hub for boardID without starting one.
func (bm *BoardManager) lookup(boardID string) (*Hub, bool) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	hub, ok := bm.hubs[boardID]
	return hub, ok
}

// len returns the number of live boards.
func (bm *BoardManager) len() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	return len(bm.hubs)
}

// newBoardID generates a crypto-random board ID and ensures it doesn't
// collide with existing boards.
func (bm *BoardManager) newBoardID() string {
	for {
		buf := make([]byte, boardIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, boardIDLength)
		for i := range out {
			out[i] = boardIDChars[int(buf[i])%len(boardIDChars)]
		}
		id := string(out)

		bm.mu.Lock()
		_, exists := bm.hubs[id]
		bm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap stops and forgets every board idle since before cutoff.
func (bm *BoardManager) reap(cutoff time.Time) int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	reaped := 0
	for id, hub := range bm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(bm.hubs, id)
			hub.stop()
			reaped++

			logf(bm.cfg, "BOARD: Reaped idle board %s", id)
		}
	}

	return reaped
}

// reaperLoop periodically removes boards that have been idle longer than
// idleTimeout, until ctx is done.
func (bm *BoardManager) reaperLoop(ctx context.Context) {
	if bm.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(bm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.reap(time.Now().Add(-bm.idleTimeout))
		}
	}
}

// stopAll stops every board.
func (bm *BoardManager) stopAll() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for id, hub := range bm.hubs {
		delete(bm.hubs, id)
		hub.stop()
	}
}
