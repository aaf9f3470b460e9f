package games

import "github.com/Niv-Kor/PlayerTwoServer/pkg/board"

// Cell ownership markers. Human slots are >= 0.
const (
	ownerNone     = -1
	ownerComputer = -2
)

// grid is the shared cell/ownership state behind the built-in games.
// The display sign and the owning slot are tracked separately, so that two
// humans sharing one sign character never collide on ownership queries.
type grid struct {
	rows, cols int
	cells      [][]rune
	owners     [][]int
}

func newGrid(rows, cols int) *grid {
	cells := make([][]rune, rows)
	owners := make([][]int, rows)
	for i := range cells {
		cells[i] = make([]rune, cols)
		owners[i] = make([]int, cols)
		for j := range owners[i] {
			owners[i][j] = ownerNone
		}
	}
	return &grid{rows: rows, cols: cols, cells: cells, owners: owners}
}

func (g *grid) inBounds(m board.Move) bool {
	return m.Row >= 0 && m.Row < g.rows && m.Column >= 0 && m.Column < g.cols
}

func (g *grid) empty(m board.Move) bool {
	return g.inBounds(m) && g.cells[m.Row][m.Column] == 0
}

func (g *grid) set(m board.Move, sign rune, owner int) {
	g.cells[m.Row][m.Column] = sign
	g.owners[m.Row][m.Column] = owner
}

func (g *grid) clear(m board.Move) {
	g.cells[m.Row][m.Column] = 0
	g.owners[m.Row][m.Column] = ownerNone
}

func (g *grid) owner(m board.Move) int {
	return g.owners[m.Row][m.Column]
}

func (g *grid) emptyCells() []board.Move {
	var out []board.Move
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			if g.cells[i][j] == 0 {
				out = append(out, board.Move{Row: i, Column: j})
			}
		}
	}
	return out
}

func (g *grid) full() bool {
	return len(g.emptyCells()) == 0
}

// find returns the first cell owned by the given owner, if any.
func (g *grid) find(owner int) (board.Move, bool) {
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			if g.owners[i][j] == owner {
				return board.Move{Row: i, Column: j}, true
			}
		}
	}
	return board.Move{}, false
}

func (g *grid) snapshot() [][]rune {
	out := make([][]rune, g.rows)
	for i := range out {
		out[i] = make([]rune, g.cols)
		copy(out[i], g.cells[i])
	}
	return out
}
