package board

// State describes the outcome of a game from one player's point of view.
// The values double as wire identifiers in end_game messages.
type State string

const (
	StateInProgress          State = "IN_PROGRESS"
	StatePlayerWon           State = "PLAYER_WON"
	StatePlayerLost          State = "PLAYER_LOST"
	StateTie                 State = "TIE"
	StatePartnerDisconnected State = "PARTNER_DISCONNECTED"
)

// Move is a single cell coordinate on a game board.
type Move struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Algorithm is a playable board game. One instance backs one game session.
//
// Human players are identified by their slot index (a stable per-session
// integer assigned at join time), never by the sign character alone: multiple
// humans share the same visual sign, and ownership queries must not collide.
type Algorithm interface {
	// ApplyMove plays the human sign on the given cell for the given slot.
	// It reports whether the move was legal and applied.
	ApplyMove(move Move, sign rune, slot int) bool

	// ComputeMove lets the computer opponent pick and play its next move.
	// It reports false when no legal move remains.
	ComputeMove(sign rune) (Move, bool)

	// RandomMove plays a uniformly chosen legal move for the given slot.
	RandomMove(sign rune, slot int) (Move, bool)

	// RandomComputerMove plays a uniformly chosen legal move for the computer.
	RandomComputerMove(sign rune) (Move, bool)

	// Place writes a sign on a cell directly, with no legality check and no
	// ownership bookkeeping.
	Place(move Move, sign rune)

	// State reports the game outcome as seen by the given slot.
	State(sign rune, slot int) State

	// Snapshot returns a copy of the current board cells.
	Snapshot() [][]rune
}
