package session

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/Niv-Kor/PlayerTwoServer/internal/catalog"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
	"github.com/oklog/ulid/v2"
)

// ClientConn is the per-client transport surface a session needs: a dedicated
// socket for one subscriber.
type ClientConn interface {
	Send(msg *protocol.Message) error
	Receive() (*protocol.Message, string, error)
	LocalAddr() string
	Close() error
}

// Subscriber pairs a client identity with its private request handler.
type Subscriber struct {
	identity Identity
	handler  *Handler
}

// Identity returns the subscriber's client identity.
func (s *Subscriber) Identity() Identity { return s.identity }

// Handler returns the subscriber's private request handler.
func (s *Subscriber) Handler() *Handler { return s.handler }

// Session is one instance of a game kind together with its subscribed
// clients and run state. All mutation is serialized behind an internal lock:
// the matchmaking layer subscribes and removes clients while any of the
// session's own handlers may trigger a disconnect removal.
type Session struct {
	id     string
	kind   *catalog.Kind
	logger *slog.Logger

	// disconnect routes a handler-detected peer loss through the matchmaking
	// tables, so that an emptied session is pruned atomically.
	disconnect func(addr string, kindName string)

	mu           sync.Mutex
	subscribers  []*Subscriber // join order; the head gets the first turn
	reservations map[string]struct{}
	weight       int
	algo         board.Algorithm
	running      bool
}

// New creates an empty session for the given kind. The reservations set
// restricts who may join a pending session; an empty set leaves it open to
// anyone. The board algorithm is drawn at random between the kind's smart and
// random variants.
func New(kind *catalog.Kind, reservations []string, disconnect func(addr, kindName string), logger *slog.Logger) *Session {
	reserved := make(map[string]struct{}, len(reservations))
	for _, addr := range reservations {
		reserved[addr] = struct{}{}
	}

	return &Session{
		id:           ulid.Make().String(),
		kind:         kind,
		logger:       logger.WithGroup("session"),
		disconnect:   disconnect,
		reservations: reserved,
		algo:         drawAlgorithm(kind),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Kind returns the descriptor of the game being played.
func (s *Session) Kind() *catalog.Kind { return s.kind }

// Subscribe adds a client to the session, creating its private request
// handler with the next slot index. Subscribing to a full session is a no-op.
// It reports whether the session is full after the call.
func (s *Session) Subscribe(identity Identity, conn ClientConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.weight >= s.kind.Goal {
		return true
	}

	handler := newHandler(s, identity, conn, len(s.subscribers), s.algo, s.logger)
	s.subscribers = append(s.subscribers, &Subscriber{identity: identity, handler: handler})
	s.weight += identity.Weight()

	s.logger.Debug(
		"Client subscribed",
		slog.String("session_id", s.id),
		slog.String("game", s.kind.Name),
		slog.String("client", identity.Name),
		slog.String("address", identity.Addr),
		slog.Int("weight", s.weight),
	)
	return s.weight == s.kind.Goal
}

// CanRun reports whether the session has enough subscriber weight to start.
func (s *Session) CanRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weight == s.kind.Goal
}

// Running reports whether the game is currently in play.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start moves the session into the running state and activates every
// subscriber's handler. It does nothing while the session is not full.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.weight != s.kind.Goal {
		return
	}
	s.running = true
	for _, sub := range s.subscribers {
		sub.handler.Start()
	}
}

// Pause flips the running flag. A handler pauses its session when the game
// reaches a terminal state; a later restart request reissues it.
func (s *Session) Pause(flag bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = !flag
}

// RemoveClient detaches the subscriber with the given address, killing its
// handler and releasing its weight. If the session was full and currently in
// play, the remaining subscribers are notified that their partner
// disconnected and the session leaves the running state. Removal from a
// not-yet-full session is silent. It reports whether a subscriber was
// removed.
func (s *Session) RemoveClient(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	couldRun := s.weight == s.kind.Goal

	idx := -1
	for i, sub := range s.subscribers {
		if sub.identity.Addr == addr {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	leaving := s.subscribers[idx]
	leaving.handler.Kill()
	s.subscribers = append(s.subscribers[:idx], s.subscribers[idx+1:]...)
	s.weight -= leaving.identity.Weight()

	s.logger.Info(
		"Client removed from session",
		slog.String("session_id", s.id),
		slog.String("game", s.kind.Name),
		slog.String("address", addr),
		slog.Int("weight", s.weight),
	)

	if couldRun && s.running {
		deathNote := protocol.New(protocol.MsgTypeEndGame).
			Set("game", s.kind.Name).
			Set("state", string(board.StatePartnerDisconnected))
		s.notifyLocked(addr, deathNote)
		s.running = false
	}
	return true
}

// NotifyAll fans a message out to every subscriber.
func (s *Session) NotifyAll(msg *protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked("", msg)
}

// NotifyOthers fans a message out to every subscriber except the given
// address.
func (s *Session) NotifyOthers(exceptAddr string, msg *protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(exceptAddr, msg)
}

// notifyLocked sends to each subscriber in join order. Per-recipient failures
// are logged and never abort the rest of the fan-out.
func (s *Session) notifyLocked(exceptAddr string, msg *protocol.Message) {
	for _, sub := range s.subscribers {
		if sub.identity.Addr == exceptAddr {
			continue
		}
		if err := sub.handler.Send(msg); err != nil {
			s.logger.Error(
				"Failed to notify client",
				slog.String("session_id", s.id),
				slog.String("address", sub.identity.Addr),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Reissue binds a freshly drawn board algorithm and pushes it into every
// subscriber's handler, returning the session to the pending state.
func (s *Session) Reissue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.algo = drawAlgorithm(s.kind)
	s.running = false
	for _, sub := range s.subscribers {
		sub.handler.ReissueBoard(s.algo)
	}

	s.logger.Info(
		"Session reissued",
		slog.String("session_id", s.id),
		slog.String("game", s.kind.Name),
	)
}

// HasClient reports whether a subscriber with the given address is present.
func (s *Session) HasClient(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscribers {
		if sub.identity.Addr == addr {
			return true
		}
	}
	return false
}

// ReservedFor reports whether the given address is pre-invited to this
// session.
func (s *Session) ReservedFor(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reservations[addr]
	return ok
}

// OpenToAll reports whether the session has no reservations.
func (s *Session) OpenToAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations) == 0
}

// Addresses returns the subscribers' addresses in join order.
func (s *Session) Addresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		out = append(out, sub.identity.Addr)
	}
	return out
}

// Subscribers returns a snapshot of the subscribers in join order.
func (s *Session) Subscribers() []*Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Subscriber, len(s.subscribers))
	copy(out, s.subscribers)
	return out
}

// Weight returns the accumulated subscriber weight.
func (s *Session) Weight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weight
}

// Empty reports whether no subscribers remain.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) == 0
}

// drawAlgorithm picks the smart or the random board variant with equal
// probability.
func drawAlgorithm(kind *catalog.Kind) board.Algorithm {
	if rand.Intn(2) == 0 {
		return kind.Smart()
	}
	return kind.Random()
}
