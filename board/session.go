/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package board models a sheet of paper covered in claimable nodes, and the
// players who take turns claiming them.
//
// Nothing in this package is safe for concurrent use. A Session is meant to
// be owned by a single goroutine that applies events one at a time.
package board

import (
	"fmt"
)

// Settings are the user-adjustable parameters of a session.
type Settings struct {
	Page    PageSize
	Players int
}

// DefaultSettings returns the settings a new session starts with.
func DefaultSettings() Settings {
	return Settings{Page: DefaultPage, Players: 2}
}

// Validate checks the settings without building anything.
func (s Settings) Validate() error {
	if !validLength(s.Page.Width) || !validLength(s.Page.Height) {
		return fmt.Errorf("%w: %q is %vx%v", ErrInvalidPageSize, s.Page.Name, s.Page.Width, s.Page.Height)
	}
	if s.Players < MinPlayers || s.Players > MaxPlayers {
		return fmt.Errorf("%w: %d (must be between %d-%d inclusive)", ErrInvalidPlayerCount, s.Players, MinPlayers, MaxPlayers)
	}
	return nil
}

// Hit is the result of a pointer hit test. A nil Node means the pointer is
// not over any node.
type Hit struct {
	Node *Node
}

// Highlight is the hovered node and its neighbors.
type Highlight struct {
	Node      *Node
	Neighbors []*Node

	// Changed is false when the hovered node is the same as last time.
	Changed bool
}

// Claim is the outcome of a pointer click.
type Claim struct {
	Node *Node

	// Player is the player who claimed the node. It is nil if nothing was
	// claimed.
	Player *Player
}

// Change reports which parts of a session were rebuilt by a settings change.
type Change struct {
	GridRebuilt    bool
	PlayersResized bool
}

// Session owns one grid and one turn engine for the lifetime of a board.
type Session struct {
	settings Settings
	grid     *Grid
	engine   *Engine
	hovered  *Node
}

// NewSession builds the grid for settings.Page and seats settings.Players
// players. Hooks fire for the initial players as well.
func NewSession(settings Settings, hooks Hooks) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	grid, err := BuildPage(settings.Page)
	if err != nil {
		return nil, err
	}

	engine := NewEngine(hooks)
	if err := engine.SetPlayerCount(settings.Players); err != nil {
		return nil, err
	}

	return &Session{
		settings: settings,
		grid:     grid,
		engine:   engine,
	}, nil
}

func (s *Session) Settings() Settings { return s.settings }
func (s *Session) Grid() *Grid         { return s.grid }
func (s *Session) Engine() *Engine     { return s.engine }

// Hovered returns the node under the pointer, if any.
func (s *Session) Hovered() *Node {
	return s.hovered
}

// Resolve turns a view's node reference into a node of the current grid.
func (s *Session) Resolve(generation uint64, column, row int) (*Node, error) {
	return s.grid.Lookup(generation, column, row)
}

// OnPointerMove tracks the hovered node and returns it with its neighbors.
func (s *Session) OnPointerMove(hit Hit) (Highlight, error) {
	if hit.Node == nil {
		changed := s.hovered != nil
		s.hovered = nil
		return Highlight{Changed: changed}, nil
	}

	neighbors, err := s.grid.Neighbors(hit.Node)
	if err != nil {
		return Highlight{}, err
	}

	changed := s.hovered != hit.Node
	s.hovered = hit.Node

	return Highlight{
		Node:      hit.Node,
		Neighbors: neighbors,
		Changed:   changed,
	}, nil
}

// OnPointerClick claims the clicked node for the active player. Clicking
// empty space or an owned node does nothing.
func (s *Session) OnPointerClick(hit Hit) (Claim, error) {
	if hit.Node == nil {
		return Claim{}, nil
	}
	if !s.grid.Contains(hit.Node) {
		return Claim{}, fmt.Errorf("%w: node (%d,%d) is not on the current page",
			ErrStaleNode, hit.Node.Column, hit.Node.Row)
	}

	player := s.engine.Active()

	claimed, err := s.engine.Claim(hit.Node)
	if err != nil || !claimed {
		return Claim{Node: hit.Node}, err
	}

	return Claim{Node: hit.Node, Player: player}, nil
}

// OnSettingsChanged applies new settings. Nothing changes unless all of the
// new settings are valid. A new page size replaces the grid, discarding all
// claims; a new player count resizes the player list and restarts the turn
// order.
func (s *Session) OnSettingsChanged(settings Settings) (Change, error) {
	var change Change

	if err := settings.Validate(); err != nil {
		return change, err
	}

	var grid *Grid
	if settings.Page != s.settings.Page {
		var err error
		grid, err = BuildPage(settings.Page)
		if err != nil {
			return change, err
		}
	}

	if grid != nil {
		s.grid = grid
		s.hovered = nil
		change.GridRebuilt = true
	}

	if settings.Players != s.engine.Len() {
		if err := s.engine.SetPlayerCount(settings.Players); err != nil {
			return change, err
		}
		change.PlayersResized = true
	}

	s.settings = settings

	return change, nil
}
