package games

import (
	"math/rand"
	"sync"

	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
)

const bunnyBoardSize = 9

// catchTheBunny is a 9x9 move-signs game. Each party owns a single piece that
// moves between adjacent cells instead of accumulating on the board. The
// computer plays the bunny: it loses when boxed in with no free adjacent cell,
// and escapes (winning) by reaching the board's edge.
type catchTheBunny struct {
	mu    sync.Mutex
	g     *grid
	smart bool
}

// NewCatchTheBunnySmart returns a board whose bunny runs from the nearest
// chaser.
func NewCatchTheBunnySmart() board.Algorithm {
	return &catchTheBunny{g: newGrid(bunnyBoardSize, bunnyBoardSize), smart: true}
}

// NewCatchTheBunnyRandom returns a board whose bunny hops at random.
func NewCatchTheBunnyRandom() board.Algorithm {
	return &catchTheBunny{g: newGrid(bunnyBoardSize, bunnyBoardSize)}
}

func (c *catchTheBunny) ApplyMove(move board.Move, sign rune, slot int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.g.empty(move) {
		return false
	}

	// first move places the piece, later moves relocate it one step
	current, placed := c.g.find(slot)
	if placed {
		if !adjacent(current, move) {
			return false
		}
		c.g.clear(current)
	}
	c.g.set(move, sign, slot)
	return true
}

func (c *catchTheBunny) ComputeMove(sign rune) (board.Move, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bunny, placed := c.g.find(ownerComputer)
	if !placed {
		// bunny enters at the center
		start := board.Move{Row: bunnyBoardSize / 2, Column: bunnyBoardSize / 2}
		if !c.g.empty(start) {
			return board.Move{}, false
		}
		c.g.set(start, sign, ownerComputer)
		return start, true
	}

	options := c.freeNeighbors(bunny)
	if len(options) == 0 {
		return board.Move{}, false
	}

	var move board.Move
	if c.smart {
		move = c.farthestFromChasers(options)
	} else {
		move = options[rand.Intn(len(options))]
	}

	c.g.clear(bunny)
	c.g.set(move, sign, ownerComputer)
	return move, true
}

func (c *catchTheBunny) RandomMove(sign rune, slot int) (board.Move, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, placed := c.g.find(slot)

	var options []board.Move
	if placed {
		options = c.freeNeighbors(current)
	} else {
		options = c.g.emptyCells()
	}
	if len(options) == 0 {
		return board.Move{}, false
	}

	move := options[rand.Intn(len(options))]
	if placed {
		c.g.clear(current)
	}
	c.g.set(move, sign, slot)
	return move, true
}

func (c *catchTheBunny) RandomComputerMove(sign rune) (board.Move, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bunny, placed := c.g.find(ownerComputer)
	if !placed {
		empty := c.g.emptyCells()
		if len(empty) == 0 {
			return board.Move{}, false
		}
		move := empty[rand.Intn(len(empty))]
		c.g.set(move, sign, ownerComputer)
		return move, true
	}

	options := c.freeNeighbors(bunny)
	if len(options) == 0 {
		return board.Move{}, false
	}
	move := options[rand.Intn(len(options))]
	c.g.clear(bunny)
	c.g.set(move, sign, ownerComputer)
	return move, true
}

func (c *catchTheBunny) Place(move board.Move, sign rune) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.g.inBounds(move) {
		c.g.set(move, sign, ownerNone)
	}
}

func (c *catchTheBunny) State(sign rune, slot int) board.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	bunny, placed := c.g.find(ownerComputer)
	if !placed {
		return board.StateInProgress
	}
	if len(c.freeNeighbors(bunny)) == 0 {
		return board.StatePlayerWon
	}
	if bunny.Row == 0 || bunny.Row == bunnyBoardSize-1 ||
		bunny.Column == 0 || bunny.Column == bunnyBoardSize-1 {
		return board.StatePlayerLost
	}
	return board.StateInProgress
}

func (c *catchTheBunny) Snapshot() [][]rune {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.g.snapshot()
}

func (c *catchTheBunny) freeNeighbors(m board.Move) []board.Move {
	var out []board.Move
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := board.Move{Row: m.Row + dr, Column: m.Column + dc}
			if c.g.empty(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// farthestFromChasers picks the option maximizing the distance to the nearest
// human piece.
func (c *catchTheBunny) farthestFromChasers(options []board.Move) board.Move {
	var chasers []board.Move
	for i := 0; i < c.g.rows; i++ {
		for j := 0; j < c.g.cols; j++ {
			if c.g.owners[i][j] >= 0 {
				chasers = append(chasers, board.Move{Row: i, Column: j})
			}
		}
	}

	best := options[0]
	bestDist := -1
	for _, opt := range options {
		dist := bunnyBoardSize * bunnyBoardSize
		for _, ch := range chasers {
			if d := chebyshev(opt, ch); d < dist {
				dist = d
			}
		}
		if dist > bestDist {
			bestDist = dist
			best = opt
		}
	}
	return best
}

func adjacent(a, b board.Move) bool {
	return chebyshev(a, b) == 1
}

func chebyshev(a, b board.Move) int {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Column - b.Column)
	if dr > dc {
		return dr
	}
	return dc
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
