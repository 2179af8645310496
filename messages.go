/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/Seednode/papergrid/board"
)

// NodeRef identifies a node as a view sees it. Generation changes whenever
// the page is rebuilt, so references held across a rebuild are detected.
type NodeRef struct {
	Generation uint64 `json:"generation"`
	Column     int    `json:"column"`
	Row        int    `json:"row"`
}

// Messages coming from clients
type ClientMessage struct {
	Type    string   `json:"type"`              // "pointer_move", "pointer_click", "settings", "rename"
	Node    *NodeRef `json:"node,omitempty"`    // pointer_move / pointer_click; absent when over empty paper
	Page    string   `json:"page,omitempty"`    // settings
	Players *int     `json:"players,omitempty"` // settings
	Index   int      `json:"index,omitempty"`   // rename
	Name    string   `json:"name,omitempty"`    // rename
}

// PlayerState describes one player.
type PlayerState struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ClaimState is one owned node.
type ClaimState struct {
	Column int    `json:"column"`
	Row    int    `json:"row"`
	Player int    `json:"player"`
	Color  string `json:"color"`
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type       string   `json:"type"` // "session_info"
	BoardID    string   `json:"board_id"`
	ViewerID   string   `json:"viewer_id"`
	PageSizes  []string `json:"page_sizes"`
	MinPlayers int      `json:"min_players"`
	MaxPlayers int      `json:"max_players"`
}

// BoardMessage is a full snapshot, sent on connect, after the page changes,
// and whenever a view needs to resynchronize.
type BoardMessage struct {
	Type       string         `json:"type"` // "board"
	Generation uint64         `json:"generation"`
	Page       board.PageSize `json:"page"`
	Columns    int            `json:"columns"`
	Rows       int            `json:"rows"`
	Spacing    float64        `json:"spacing"`
	Claims     []ClaimState   `json:"claims"`
	Players    []PlayerState  `json:"players"`
	Active     PlayerState    `json:"active"`
}

// HighlightMessage tells the view which nodes to light up.
type HighlightMessage struct {
	Type      string    `json:"type"`           // "highlight"
	Node      *NodeRef  `json:"node,omitempty"` // nil clears the highlight
	Neighbors []NodeRef `json:"neighbors"`
}

// ClaimedMessage reports a successful claim.
type ClaimedMessage struct {
	Type   string      `json:"type"` // "claimed"
	Node   NodeRef     `json:"node"`
	Player PlayerState `json:"player"`
}

// TurnMessage names the player whose turn it is.
type TurnMessage struct {
	Type   string      `json:"type"` // "turn"
	Active PlayerState `json:"active"`
}

// PlayerMessage keeps the view's player list in sync.
type PlayerMessage struct {
	Type   string      `json:"type"` // "player_added", "player_removed", "player_renamed"
	Player PlayerState `json:"player"`
}

// SimpleMessage is for generic notifications ("error", "moved")
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func playerState(p *board.Player) PlayerState {
	if p == nil {
		return PlayerState{Index: -1}
	}

	return PlayerState{
		Index: p.Index(),
		Name:  p.Name(),
		Color: p.Color().Hex(),
	}
}

func nodeRef(n *board.Node) NodeRef {
	return NodeRef{
		Generation: n.Generation(),
		Column:     n.Column,
		Row:        n.Row,
	}
}

func boardSnapshot(s *board.Session) BoardMessage {
	g := s.Grid()

	claimed := g.Claimed()
	claims := make([]ClaimState, 0, len(claimed))
	for _, n := range claimed {
		claims = append(claims, ClaimState{
			Column: n.Column,
			Row:    n.Row,
			Player: n.Owner.Index(),
			Color:  n.Owner.Color().Hex(),
		})
	}

	players := s.Engine().Players()
	states := make([]PlayerState, 0, len(players))
	for _, p := range players {
		states = append(states, playerState(p))
	}

	return BoardMessage{
		Type:       "board",
		Generation: g.Generation(),
		Page:       s.Settings().Page,
		Columns:    g.Columns(),
		Rows:       g.Rows(),
		Spacing:    board.Spacing,
		Claims:     claims,
		Players:    states,
		Active:     playerState(s.Engine().Active()),
	}
}
