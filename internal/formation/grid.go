package formation

import "fmt"

// Grid is a rows×cols arena of values addressed by (row, col). The solver
// keeps agent handles in it; rotation permutes the handles by value swap.
type Grid[T any] struct {
	rows  int
	cols  int
	cells []T
}

// NewGrid returns a rows×cols grid of zero values.
func NewGrid[T any](rows, cols int) *Grid[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("formation: negative grid size %dx%d", rows, cols))
	}
	return &Grid[T]{rows: rows, cols: cols, cells: make([]T, rows*cols)}
}

// GridFromRows builds a grid from a slice of equal-length rows.
func GridFromRows[T any](rows [][]T) (*Grid[T], error) {
	if len(rows) == 0 {
		return NewGrid[T](0, 0), nil
	}
	g := NewGrid[T](len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != g.cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(r), g.cols, ErrInvalidConfig)
		}
		copy(g.cells[i*g.cols:], r)
	}
	return g, nil
}

func (g *Grid[T]) Rows() int    { return g.rows }
func (g *Grid[T]) Cols() int    { return g.cols }
func (g *Grid[T]) Square() bool { return g.rows == g.cols }

func (g *Grid[T]) At(row, col int) T {
	return g.cells[g.index(row, col)]
}

func (g *Grid[T]) Set(row, col int, v T) {
	g.cells[g.index(row, col)] = v
}

func (g *Grid[T]) index(row, col int) int {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		panic(fmt.Sprintf("formation: cell (%d,%d) out of range %dx%d", row, col, g.rows, g.cols))
	}
	return row*g.cols + col
}

// ToRows copies the grid out as a slice of rows.
func (g *Grid[T]) ToRows() [][]T {
	out := make([][]T, g.rows)
	for i := range out {
		out[i] = append([]T(nil), g.cells[i*g.cols:(i+1)*g.cols]...)
	}
	return out
}

// Rotate turns the grid 90° in the given direction. None is a no-op.
func (g *Grid[T]) Rotate(dir Direction) error {
	switch dir {
	case Clockwise:
		return g.RotateClockwise()
	case Counterclockwise:
		return g.RotateCounterclockwise()
	case None:
		return nil
	}
	return fmt.Errorf("formation: unknown direction %d", int(dir))
}

// RotateClockwise rotates a square grid 90° clockwise in place:
// new[i][j] = old[n-1-j][i]. Works ring by ring from the outside in,
// cycling four cells per step.
func (g *Grid[T]) RotateClockwise() error {
	if !g.Square() {
		return fmt.Errorf("%dx%d: %w", g.rows, g.cols, ErrNotSquare)
	}
	c := g.cells
	n := g.rows
	y := n - 1
	at := func(r, col int) int { return r*n + col }

	for i := 0; i < n/2; i++ {
		for j := i; j < y-i; j++ {
			tmp := c[at(i, j)]
			c[at(i, j)] = c[at(y-j, i)]
			c[at(y-j, i)] = c[at(y-i, y-j)]
			c[at(y-i, y-j)] = c[at(j, y-i)]
			c[at(j, y-i)] = tmp
		}
	}
	return nil
}

// RotateCounterclockwise is the inverse of RotateClockwise:
// new[i][j] = old[j][n-1-i].
func (g *Grid[T]) RotateCounterclockwise() error {
	if !g.Square() {
		return fmt.Errorf("%dx%d: %w", g.rows, g.cols, ErrNotSquare)
	}
	c := g.cells
	n := g.rows
	y := n - 1
	at := func(r, col int) int { return r*n + col }

	for i := 0; i < n/2; i++ {
		for j := i; j < y-i; j++ {
			tmp := c[at(j, i)]
			c[at(j, i)] = c[at(i, y-j)]
			c[at(i, y-j)] = c[at(y-j, y-i)]
			c[at(y-j, y-i)] = c[at(y-i, j)]
			c[at(y-i, j)] = tmp
		}
	}
	return nil
}
