package catalog

import (
	"errors"
	"fmt"

	"github.com/Niv-Kor/PlayerTwoServer/internal/games"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
)

// Game kind identifiers used on the wire.
const (
	KindTicTacToe     = "TIC_TAC_TOE"
	KindCatchTheBunny = "CATCH_THE_BUNNY"
)

// ErrUnknownKind is returned when a request names an unregistered game kind.
var ErrUnknownKind = errors.New("unknown game kind")

// Factory builds a fresh board algorithm for a new or reissued session.
type Factory func() board.Algorithm

// Kind describes one supported game. Descriptors are immutable and registered
// once at process start.
type Kind struct {
	// Name identifies the kind on the wire.
	Name string

	// Goal is the subscriber weight required to start a session.
	Goal int

	// PlayerSign and ComputerSign are the display characters of the two
	// parties.
	PlayerSign   rune
	ComputerSign rune

	// MovesSigns is true for games whose pieces relocate between cells
	// rather than accumulating on the board.
	MovesSigns bool

	// Smart and Random build the two board algorithm variants a session
	// chooses between.
	Smart  Factory
	Random Factory
}

// Registry maps game kind identifiers to their descriptors.
type Registry struct {
	kinds map[string]*Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Register adds a kind to the registry. Registering a duplicate or invalid
// descriptor is a programming error surfaced to the caller.
func (r *Registry) Register(kind *Kind) error {
	if kind.Name == "" || kind.Goal < 1 || kind.Smart == nil || kind.Random == nil {
		return fmt.Errorf("invalid descriptor for game kind %q", kind.Name)
	}
	if _, ok := r.kinds[kind.Name]; ok {
		return fmt.Errorf("game kind %q already registered", kind.Name)
	}
	r.kinds[kind.Name] = kind
	return nil
}

// Lookup resolves a kind identifier.
func (r *Registry) Lookup(name string) (*Kind, error) {
	kind, ok := r.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return kind, nil
}

// Names returns the identifiers of all registered kinds.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		out = append(out, name)
	}
	return out
}

// Default returns a registry holding the built-in games.
func Default() *Registry {
	r := NewRegistry()

	_ = r.Register(&Kind{
		Name:         KindTicTacToe,
		Goal:         2,
		PlayerSign:   'X',
		ComputerSign: 'O',
		Smart:        games.NewTicTacToeSmart,
		Random:       games.NewTicTacToeRandom,
	})

	_ = r.Register(&Kind{
		Name:         KindCatchTheBunny,
		Goal:         2,
		PlayerSign:   'Y',
		ComputerSign: 'B',
		MovesSigns:   true,
		Smart:        games.NewCatchTheBunnySmart,
		Random:       games.NewCatchTheBunnyRandom,
	})

	return r
}
