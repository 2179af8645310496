/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	MinPlayers    = 1
	MaxPlayers    = 8
	MaxNameLength = 32
)

// Hooks let the presentation layer mirror the player list. Any of them may
// be nil.
type Hooks struct {
	PlayerAdded   func(*Player)
	PlayerRemoved func(*Player)
	PlayerRenamed func(*Player)
	ActiveChanged func(*Player)
}

// Engine owns the ordered player list and whose turn it is.
type Engine struct {
	players []*Player
	active  *Player
	hooks   Hooks
}

// NewEngine returns an engine with no players. Call SetPlayerCount before
// claiming nodes.
func NewEngine(hooks Hooks) *Engine {
	return &Engine{hooks: hooks}
}

// SetPlayerCount grows or shrinks the player list to n players, then hands
// the turn to the first player.
//
// New players are indexed by the length of the list at the time they are
// appended, and colored by their index relative to n. Players that survive
// the resize keep their index, name and color. A new player whose default
// name was taken by a rename gets the next free default name instead.
func (e *Engine) SetPlayerCount(n int) error {
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%w: %d (must be between %d-%d inclusive)", ErrInvalidPlayerCount, n, MinPlayers, MaxPlayers)
	}

	for len(e.players) > n {
		last := len(e.players) - 1
		removed := e.players[last]
		e.players[last] = nil
		e.players = e.players[:last]

		if e.hooks.PlayerRemoved != nil {
			e.hooks.PlayerRemoved(removed)
		}
	}

	for len(e.players) < n {
		p := newPlayer(len(e.players), n)
		p.name = e.unusedName(p.index)
		e.players = append(e.players, p)

		if e.hooks.PlayerAdded != nil {
			e.hooks.PlayerAdded(p)
		}
	}

	e.setActive(e.players[0])

	return nil
}

// Len returns the number of players.
func (e *Engine) Len() int {
	return len(e.players)
}

// Players returns the players in turn order.
func (e *Engine) Players() []*Player {
	return slices.Clone(e.players)
}

// Active returns the player whose turn it is, or nil before the first
// SetPlayerCount.
func (e *Engine) Active() *Player {
	return e.active
}

// Player returns the player with the given index.
func (e *Engine) Player(index int) (*Player, bool) {
	for _, p := range e.players {
		if p.index == index {
			return p, true
		}
	}
	return nil, false
}

// Rename changes a player's display name. Names are trimmed and must be
// unique among the current players.
func (e *Engine) Rename(index int, name string) error {
	p, ok := e.Player(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, index)
	}

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, MaxNameLength)
	}

	if other := e.holder(name); other != nil && other != p {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	if p.name == name {
		return nil
	}
	p.name = name

	if e.hooks.PlayerRenamed != nil {
		e.hooks.PlayerRenamed(p)
	}

	return nil
}

// holder returns the player named name, if any.
func (e *Engine) holder(name string) *Player {
	for _, p := range e.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

// unusedName returns the default name for index, or the first default name
// after it that no current player holds.
func (e *Engine) unusedName(index int) string {
	for i := index; ; i++ {
		if name := defaultName(i); e.holder(name) == nil {
			return name
		}
	}
}

// Claim gives n to the active player and passes the turn. Claiming a node
// that already has an owner does nothing and reports false.
func (e *Engine) Claim(n *Node) (bool, error) {
	if n == nil {
		return false, ErrNilNode
	}
	if e.active == nil {
		return false, ErrNoPlayers
	}
	if n.Owner != nil {
		return false, nil
	}

	n.Owner = e.active
	e.Advance()

	return true, nil
}

// Advance passes the turn to the player whose index follows the active
// player's, or to the first player in the list when there is none.
//
// Successors are found by index, not by position. Indices are assigned from
// the list length at append time, so after a shrink and regrow the player
// following the active one by index is not always the next one in the list.
func (e *Engine) Advance() {
	if e.active == nil {
		return
	}

	next, ok := e.Player(e.active.index + 1)
	if !ok {
		next = e.players[0]
	}

	e.setActive(next)
}

func (e *Engine) setActive(p *Player) {
	e.active = p

	if e.hooks.ActiveChanged != nil {
		e.hooks.ActiveChanged(p)
	}
}
