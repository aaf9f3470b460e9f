package matchmaking

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Niv-Kor/PlayerTwoServer/internal/catalog"
	"github.com/Niv-Kor/PlayerTwoServer/internal/session"
)

// kindTable holds one game kind's matchmaking state. The pending queue is a
// strict FIFO of not-yet-full sessions; the active list holds every session
// with at least one subscriber, full or not. All access is serialized behind
// the table's lock, which also orders disconnect-driven removals against
// concurrent joins.
type kindTable struct {
	mu      sync.Mutex
	pending []*session.Session
	active  []*session.Session
}

// Service owns the matchmaking bookkeeping: it pairs joining clients with
// compatible pending sessions, creates sessions when none fit, and prunes
// sessions once their last subscriber leaves.
type Service struct {
	logger   *slog.Logger
	registry *catalog.Registry
	tables   map[string]*kindTable
}

// New creates a matchmaking service with one table per registered game kind.
func New(logger *slog.Logger, registry *catalog.Registry) *Service {
	tables := make(map[string]*kindTable)
	for _, name := range registry.Names() {
		tables[name] = &kindTable{}
	}

	return &Service{
		logger:   logger.WithGroup("matchmaking"),
		registry: registry,
		tables:   tables,
	}
}

// JoinOrCreate subscribes a client to a compatible pending session of the
// given kind, or creates one when none fits. The returned flag is true when
// the client was already subscribed to an active session of that kind: the
// join is idempotent and the existing session is returned unchanged (the
// caller still owns conn in that case).
//
// Solo clients never join a pending session: their weight alone fills a fresh
// one. A pending session is compatible when the client asked for a reserved
// seat and is on its reservation list, or asked for a free-for-all seat and
// the session holds no reservations.
func (s *Service) JoinOrCreate(identity session.Identity, kindName string, reservations []string, reserved bool, conn session.ClientConn) (*session.Session, bool, error) {
	kind, err := s.registry.Lookup(kindName)
	if err != nil {
		return nil, false, fmt.Errorf("could not join game: %w", err)
	}

	tbl := s.tables[kindName]
	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	for _, sess := range tbl.active {
		if sess.HasClient(identity.Addr) {
			s.logger.Debug(
				"Duplicate join, returning existing session",
				slog.String("game", kindName),
				slog.String("address", identity.Addr),
			)
			return sess, true, nil
		}
	}

	if !identity.Solo {
		for i, pending := range tbl.pending {
			if reserved && !pending.ReservedFor(identity.Addr) {
				continue
			}
			if !reserved && !pending.OpenToAll() {
				continue
			}

			if full := pending.Subscribe(identity, conn); full {
				tbl.pending = append(tbl.pending[:i], tbl.pending[i+1:]...)
			}
			return pending, false, nil
		}
	}

	sess := session.New(kind, reservations, s.removeClient, s.logger)
	sess.Subscribe(identity, conn)
	tbl.active = append(tbl.active, sess)
	if kind.Goal > 1 && !sess.CanRun() {
		tbl.pending = append(tbl.pending, sess)
	}

	s.logger.Info(
		"Session created",
		slog.String("session_id", sess.ID()),
		slog.String("game", kindName),
		slog.String("address", identity.Addr),
		slog.Bool("solo", identity.Solo),
		slog.Int("reservations", len(reservations)),
	)
	return sess, false, nil
}

// Close removes a client from every pending session of the kind and from the
// session it is currently playing, pruning sessions that become empty. It
// returns the played session the client was removed from, if any.
func (s *Service) Close(addr, kindName string) *session.Session {
	tbl, ok := s.tables[kindName]
	if !ok {
		return nil
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	return s.removeLocked(tbl, addr)
}

// removeClient is the disconnect route handed to sessions: a request handler
// that loses its peer detaches the client through the matchmaking tables so
// that pruning stays atomic with respect to concurrent joins.
func (s *Service) removeClient(addr, kindName string) {
	if sess := s.Close(addr, kindName); sess != nil {
		s.logger.Info(
			"Client disconnected from played session",
			slog.String("session_id", sess.ID()),
			slog.String("game", kindName),
			slog.String("address", addr),
		)
	}
}

func (s *Service) removeLocked(tbl *kindTable, addr string) *session.Session {
	// sweep the pending queue first; these removals are silent
	kept := tbl.pending[:0]
	for _, pending := range tbl.pending {
		pending.RemoveClient(addr)
		if pending.Empty() {
			s.dropActiveLocked(tbl, pending)
			continue
		}
		kept = append(kept, pending)
	}
	tbl.pending = kept

	// then the session the client is actually playing
	played := s.playedLocked(tbl, addr)
	if played == nil {
		return nil
	}

	played.RemoveClient(addr)
	if played.Empty() {
		s.dropActiveLocked(tbl, played)
	}
	return played
}

// playedLocked finds the active session holding the client outside the
// pending queue, i.e. the one whose game the client is playing.
func (s *Service) playedLocked(tbl *kindTable, addr string) *session.Session {
	for _, sess := range tbl.active {
		if !sess.HasClient(addr) {
			continue
		}
		inPending := false
		for _, pending := range tbl.pending {
			if pending == sess {
				inPending = true
				break
			}
		}
		if !inPending {
			return sess
		}
	}
	return nil
}

func (s *Service) dropActiveLocked(tbl *kindTable, target *session.Session) {
	for i, sess := range tbl.active {
		if sess == target {
			tbl.active = append(tbl.active[:i], tbl.active[i+1:]...)
			return
		}
	}
}

// Reissue renews the session the client is playing: a fresh board is drawn
// and pushed into every attached handler. It returns nil and mutates nothing
// when the client is not currently playing the kind.
func (s *Service) Reissue(addr, kindName string) *session.Session {
	tbl, ok := s.tables[kindName]
	if !ok {
		return nil
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	played := s.playedLocked(tbl, addr)
	if played == nil {
		s.logger.Debug(
			"Reissue for a client that is not playing",
			slog.String("game", kindName),
			slog.String("address", addr),
		)
		return nil
	}

	played.Reissue()
	return played
}

// IsPlaying reports whether some active session of the kind holds the client.
func (s *Service) IsPlaying(addr, kindName string) bool {
	tbl, ok := s.tables[kindName]
	if !ok {
		return false
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	for _, sess := range tbl.active {
		if sess.HasClient(addr) {
			return true
		}
	}
	return false
}

// Sessions returns a snapshot of every tracked session across all kinds.
func (s *Service) Sessions() []*session.Session {
	var out []*session.Session
	for _, tbl := range s.tables {
		tbl.mu.Lock()
		out = append(out, tbl.active...)
		tbl.mu.Unlock()
	}
	return out
}

// ClientCount returns the number of clients currently subscribed across all
// kinds.
func (s *Service) ClientCount() int {
	var count int
	for _, sess := range s.Sessions() {
		count += len(sess.Addresses())
	}
	return count
}
