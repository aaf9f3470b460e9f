package games

import (
	"math/rand"
	"sync"

	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
)

const ticTacToeSize = 3

// ticTacToe is a 3x3 add-signs game. Signs are written to empty cells and
// never move; three cells in a line owned by the same party win.
type ticTacToe struct {
	mu    sync.Mutex
	g     *grid
	smart bool
}

// NewTicTacToeSmart returns a tic-tac-toe board whose computer opponent wins
// or blocks when it can.
func NewTicTacToeSmart() board.Algorithm {
	return &ticTacToe{g: newGrid(ticTacToeSize, ticTacToeSize), smart: true}
}

// NewTicTacToeRandom returns a tic-tac-toe board whose computer opponent
// plays uniformly random legal moves.
func NewTicTacToeRandom() board.Algorithm {
	return &ticTacToe{g: newGrid(ticTacToeSize, ticTacToeSize)}
}

func (t *ticTacToe) ApplyMove(move board.Move, sign rune, slot int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.g.empty(move) {
		return false
	}
	t.g.set(move, sign, slot)
	return true
}

func (t *ticTacToe) ComputeMove(sign rune) (board.Move, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	empty := t.g.emptyCells()
	if len(empty) == 0 {
		return board.Move{}, false
	}

	if t.smart {
		// take a winning cell, otherwise deny the opponent one
		if move, ok := t.lineCompleter(ownerComputer); ok {
			t.g.set(move, sign, ownerComputer)
			return move, true
		}
		if move, ok := t.anyOpponentCompleter(); ok {
			t.g.set(move, sign, ownerComputer)
			return move, true
		}
		center := board.Move{Row: 1, Column: 1}
		if t.g.empty(center) {
			t.g.set(center, sign, ownerComputer)
			return center, true
		}
	}

	move := empty[rand.Intn(len(empty))]
	t.g.set(move, sign, ownerComputer)
	return move, true
}

func (t *ticTacToe) RandomMove(sign rune, slot int) (board.Move, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	empty := t.g.emptyCells()
	if len(empty) == 0 {
		return board.Move{}, false
	}
	move := empty[rand.Intn(len(empty))]
	t.g.set(move, sign, slot)
	return move, true
}

func (t *ticTacToe) RandomComputerMove(sign rune) (board.Move, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	empty := t.g.emptyCells()
	if len(empty) == 0 {
		return board.Move{}, false
	}
	move := empty[rand.Intn(len(empty))]
	t.g.set(move, sign, ownerComputer)
	return move, true
}

func (t *ticTacToe) Place(move board.Move, sign rune) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.g.inBounds(move) {
		t.g.set(move, sign, ownerNone)
	}
}

func (t *ticTacToe) State(sign rune, slot int) board.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if winner, ok := t.winner(); ok {
		if winner == slot {
			return board.StatePlayerWon
		}
		return board.StatePlayerLost
	}
	if t.g.full() {
		return board.StateTie
	}
	return board.StateInProgress
}

func (t *ticTacToe) Snapshot() [][]rune {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.g.snapshot()
}

// lines enumerates every winning line on the board.
func (t *ticTacToe) lines() [][]board.Move {
	var out [][]board.Move
	for i := 0; i < ticTacToeSize; i++ {
		var row, col []board.Move
		for j := 0; j < ticTacToeSize; j++ {
			row = append(row, board.Move{Row: i, Column: j})
			col = append(col, board.Move{Row: j, Column: i})
		}
		out = append(out, row, col)
	}
	var diag, anti []board.Move
	for i := 0; i < ticTacToeSize; i++ {
		diag = append(diag, board.Move{Row: i, Column: i})
		anti = append(anti, board.Move{Row: i, Column: ticTacToeSize - 1 - i})
	}
	return append(out, diag, anti)
}

// winner returns the owner holding a complete line, if any.
func (t *ticTacToe) winner() (int, bool) {
	for _, line := range t.lines() {
		owner := t.g.owner(line[0])
		if owner == ownerNone {
			continue
		}
		complete := true
		for _, cell := range line[1:] {
			if t.g.owner(cell) != owner {
				complete = false
				break
			}
		}
		if complete {
			return owner, true
		}
	}
	return ownerNone, false
}

// lineCompleter finds a cell that completes a line for the given owner.
func (t *ticTacToe) lineCompleter(owner int) (board.Move, bool) {
	for _, line := range t.lines() {
		var gap board.Move
		owned, gaps := 0, 0
		for _, cell := range line {
			switch {
			case t.g.owner(cell) == owner:
				owned++
			case t.g.empty(cell):
				gap = cell
				gaps++
			}
		}
		if owned == ticTacToeSize-1 && gaps == 1 {
			return gap, true
		}
	}
	return board.Move{}, false
}

// anyOpponentCompleter finds a cell that would complete a line for any
// non-computer owner.
func (t *ticTacToe) anyOpponentCompleter() (board.Move, bool) {
	seen := make(map[int]bool)
	for i := 0; i < t.g.rows; i++ {
		for j := 0; j < t.g.cols; j++ {
			owner := t.g.owners[i][j]
			if owner >= 0 && !seen[owner] {
				seen[owner] = true
				if move, ok := t.lineCompleter(owner); ok {
					return move, true
				}
			}
		}
	}
	return board.Move{}, false
}
