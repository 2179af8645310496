/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import "errors"

var (
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrUnknownPageSize    = errors.New("unknown page size")
	ErrInvalidPlayerCount = errors.New("invalid player count")
	ErrStaleNode          = errors.New("stale node reference")
	ErrOutOfBounds        = errors.New("node out of bounds")
	ErrNilNode            = errors.New("nil node")
	ErrNoPlayers          = errors.New("no players")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrInvalidName        = errors.New("invalid player name")
	ErrDuplicateName      = errors.New("player name already taken")
)
