/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, players int) (*Session, *hookLog) {
	t.Helper()

	log := &hookLog{}
	s, err := NewSession(Settings{Page: DefaultPage, Players: players}, log.hooks())
	require.NoError(t, err)

	return s, log
}

func mustNode(t *testing.T, s *Session, column, row int) *Node {
	t.Helper()

	n, err := s.Resolve(s.Grid().Generation(), column, row)
	require.NoError(t, err)

	return n
}

func TestNewSessionValidates(t *testing.T) {
	_, err := NewSession(Settings{Page: DefaultPage, Players: 0}, Hooks{})
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)

	_, err = NewSession(Settings{Page: PageSize{Name: "bad", Width: -1, Height: 10}, Players: 2}, Hooks{})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	s, err := NewSession(DefaultSettings(), Hooks{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Engine().Len())
	assert.Equal(t, 29*41, s.Grid().Len())
}

func TestPointerMoveHighlightsNeighbors(t *testing.T) {
	s, _ := newTestSession(t, 2)
	corner := mustNode(t, s, 0, 0)

	hl, err := s.OnPointerMove(Hit{Node: corner})
	require.NoError(t, err)
	assert.True(t, hl.Changed)
	assert.Same(t, corner, hl.Node)
	assert.Same(t, corner, s.Hovered())
	if diff := cmp.Diff([][2]int{{0, 1}, {1, 0}, {1, 1}}, coords(hl.Neighbors)); diff != "" {
		t.Errorf("corner neighbors mismatch (-want +got):\n%s", diff)
	}

	hl, err = s.OnPointerMove(Hit{Node: corner})
	require.NoError(t, err)
	assert.False(t, hl.Changed)

	hl, err = s.OnPointerMove(Hit{})
	require.NoError(t, err)
	assert.True(t, hl.Changed)
	assert.Nil(t, hl.Node)
	assert.Nil(t, s.Hovered())

	hl, err = s.OnPointerMove(Hit{})
	require.NoError(t, err)
	assert.False(t, hl.Changed)
}

func TestPointerClickClaims(t *testing.T) {
	s, _ := newTestSession(t, 2)
	first := s.Engine().Active()
	n := mustNode(t, s, 4, 7)

	claim, err := s.OnPointerClick(Hit{Node: n})
	require.NoError(t, err)
	assert.Same(t, first, claim.Player)
	assert.Same(t, first, n.Owner)
	assert.Equal(t, 1, s.Engine().Active().Index())

	claim, err = s.OnPointerClick(Hit{Node: n})
	require.NoError(t, err)
	assert.Nil(t, claim.Player, "double claims are ignored")
	assert.Same(t, first, n.Owner)
	assert.Equal(t, 1, s.Engine().Active().Index())

	claim, err = s.OnPointerClick(Hit{})
	require.NoError(t, err)
	assert.Equal(t, Claim{}, claim)

	assert.Len(t, s.Grid().Claimed(), 1)
}

func TestPageChangeInvalidatesNodes(t *testing.T) {
	s, _ := newTestSession(t, 2)
	old := mustNode(t, s, 1, 1)
	oldGeneration := s.Grid().Generation()

	_, err := s.OnPointerClick(Hit{Node: old})
	require.NoError(t, err)
	_, err = s.OnPointerMove(Hit{Node: old})
	require.NoError(t, err)

	a4, err := LookupPageSize("A4")
	require.NoError(t, err)

	change, err := s.OnSettingsChanged(Settings{Page: a4, Players: 2})
	require.NoError(t, err)
	assert.Equal(t, Change{GridRebuilt: true}, change)
	assert.NotEqual(t, oldGeneration, s.Grid().Generation())
	assert.Nil(t, s.Hovered())
	assert.Empty(t, s.Grid().Claimed())
	assert.Equal(t, 1, s.Engine().Active().Index(), "turn order survives a page change")

	_, err = s.OnPointerClick(Hit{Node: old})
	assert.ErrorIs(t, err, ErrStaleNode)

	_, err = s.OnPointerMove(Hit{Node: old})
	assert.ErrorIs(t, err, ErrStaleNode)

	_, err = s.Resolve(oldGeneration, 1, 1)
	assert.ErrorIs(t, err, ErrStaleNode)
}

func TestPlayerCountChangeResetsTurn(t *testing.T) {
	s, log := newTestSession(t, 3)
	s.Engine().Advance()
	generation := s.Grid().Generation()

	change, err := s.OnSettingsChanged(Settings{Page: DefaultPage, Players: 2})
	require.NoError(t, err)
	assert.Equal(t, Change{PlayersResized: true}, change)
	assert.Equal(t, generation, s.Grid().Generation())
	assert.Equal(t, 0, s.Engine().Active().Index())
	assert.Equal(t, []int{2}, log.removed)
}

func TestUnchangedSettingsKeepState(t *testing.T) {
	s, _ := newTestSession(t, 3)
	s.Engine().Advance()

	change, err := s.OnSettingsChanged(s.Settings())
	require.NoError(t, err)
	assert.Equal(t, Change{}, change)
	assert.Equal(t, 1, s.Engine().Active().Index())
}

func TestInvalidSettingsChangeNothing(t *testing.T) {
	s, log := newTestSession(t, 3)
	generation := s.Grid().Generation()

	a3, err := LookupPageSize("A3")
	require.NoError(t, err)

	_, err = s.OnSettingsChanged(Settings{Page: a3, Players: MaxPlayers + 1})
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)

	assert.Equal(t, generation, s.Grid().Generation())
	assert.Equal(t, DefaultPage, s.Settings().Page)
	assert.Equal(t, 3, s.Engine().Len())
	assert.Empty(t, log.removed)
}
