/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"
)

const (
	// Spacing is the distance between adjacent nodes, and between the
	// page edge and the first node, in millimeters.
	Spacing float64 = 5

	// MaxNodes caps the size of a single grid.
	MaxNodes = 1 << 20
)

// neighborOffsets is the Moore neighborhood, as (column, row) deltas.
var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// generations hands out a unique number to every grid ever built, so a
// node can be traced back to the grid that created it.
var generations atomic.Uint64

// Node is a single claimable point on the page.
type Node struct {
	Column int
	Row    int

	// X and Y are the node's position in millimeters, relative to the
	// center of the page.
	X float64
	Y float64

	// Owner is nil until a player claims the node.
	Owner *Player

	neighbors  []*Node
	generation uint64
}

// Claimed reports whether a player owns the node.
func (n *Node) Claimed() bool {
	return n.Owner != nil
}

// Generation returns the generation of the grid the node belongs to.
func (n *Node) Generation() uint64 {
	return n.generation
}

// Grid is the lattice of nodes covering one page. A grid's topology never
// changes; resizing the page means building a new grid.
type Grid struct {
	width      float64
	height     float64
	generation uint64

	// matrix is indexed as matrix[column][row].
	matrix [][]*Node
	count  int
}

// BuildPage builds the grid for a named page size.
func BuildPage(page PageSize) (*Grid, error) {
	return Build(page.Width, page.Height)
}

// Build lays out nodes every Spacing millimeters across a page of the given
// dimensions and links every node to its in-bounds neighbors.
func Build(width, height float64) (*Grid, error) {
	if !validLength(width) || !validLength(height) {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidPageSize, width, height)
	}

	columns, rows := span(width), span(height)
	if columns == 0 || rows == 0 {
		return nil, fmt.Errorf("%w: %vx%v is too small to hold a node", ErrInvalidPageSize, width, height)
	}
	if columns*rows > MaxNodes {
		return nil, fmt.Errorf("%w: %vx%v needs more than %d nodes", ErrInvalidPageSize, width, height, MaxNodes)
	}

	g := &Grid{
		width:      width,
		height:     height,
		generation: generations.Add(1),
		matrix:     make([][]*Node, columns),
		count:      columns * rows,
	}

	for c := 0; c < columns; c++ {
		column := make([]*Node, rows)
		for r := 0; r < rows; r++ {
			column[r] = &Node{
				Column:     c,
				Row:        r,
				X:          position(width, c),
				Y:          position(height, r),
				generation: g.generation,
			}
		}
		g.matrix[c] = column
	}

	for _, column := range g.matrix {
		for _, node := range column {
			node.neighbors = make([]*Node, 0, len(neighborOffsets))
			for _, offset := range neighborOffsets {
				if n, ok := g.At(node.Column+offset[0], node.Row+offset[1]); ok {
					node.neighbors = append(node.neighbors, n)
				}
			}
		}
	}

	return g, nil
}

func validLength(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func position(length float64, i int) float64 {
	return -length/2 + Spacing + float64(i)*Spacing
}

// span counts the nodes that fit along one edge of the page.
func span(length float64) int {
	n := 0
	for position(length, n) < length/2 {
		n++
		if n > MaxNodes {
			break
		}
	}
	return n
}

func (g *Grid) Generation() uint64 { return g.generation }
func (g *Grid) Columns() int       { return len(g.matrix) }
func (g *Grid) Len() int           { return g.count }
func (g *Grid) Width() float64     { return g.width }
func (g *Grid) Height() float64    { return g.height }

func (g *Grid) Rows() int {
	if len(g.matrix) == 0 {
		return 0
	}
	return len(g.matrix[0])
}

// At returns the node at the given column and row.
func (g *Grid) At(column, row int) (*Node, bool) {
	if column < 0 || column >= len(g.matrix) {
		return nil, false
	}
	if row < 0 || row >= len(g.matrix[column]) {
		return nil, false
	}
	return g.matrix[column][row], true
}

// Nodes returns every node, column by column.
func (g *Grid) Nodes() []*Node {
	nodes := make([]*Node, 0, g.count)
	for _, column := range g.matrix {
		nodes = append(nodes, column...)
	}
	return nodes
}

// Claimed returns every node that has an owner, column by column.
func (g *Grid) Claimed() []*Node {
	var nodes []*Node
	for _, column := range g.matrix {
		for _, n := range column {
			if n.Owner != nil {
				nodes = append(nodes, n)
			}
		}
	}
	return nodes
}

// Contains reports whether n was created by this grid.
func (g *Grid) Contains(n *Node) bool {
	if n == nil || n.generation != g.generation {
		return false
	}
	found, ok := g.At(n.Column, n.Row)
	return ok && found == n
}

// Neighbors returns the nodes adjacent to n. It fails with ErrStaleNode if n
// belongs to a different grid.
func (g *Grid) Neighbors(n *Node) ([]*Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	if !g.Contains(n) {
		return nil, fmt.Errorf("%w: node (%d,%d) is from generation %d, grid is %d",
			ErrStaleNode, n.Column, n.Row, n.generation, g.generation)
	}
	return slices.Clone(n.neighbors), nil
}

// Lookup resolves a (generation, column, row) reference, as held by a view,
// to a node of this grid.
func (g *Grid) Lookup(generation uint64, column, row int) (*Node, error) {
	if generation != g.generation {
		return nil, fmt.Errorf("%w: generation %d, grid is %d", ErrStaleNode, generation, g.generation)
	}
	n, ok := g.At(column, row)
	if !ok {
		return nil, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, column, row, g.Columns(), g.Rows())
	}
	return n, nil
}
