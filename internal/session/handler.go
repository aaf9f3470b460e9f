package session

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Niv-Kor/PlayerTwoServer/internal/transport"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

// Handler lifecycle states.
const (
	stateIdle int32 = iota
	stateActive
	stateDead
)

// Handler is the per-client worker serving one subscriber of one session. It
// blocks on the client's dedicated socket, dispatches game protocol messages,
// and turns a peer-unreachable condition into a session removal. Dead is its
// only terminal state.
type Handler struct {
	session  *Session
	identity Identity
	conn     ClientConn
	slot     int
	logger   *slog.Logger

	state    atomic.Int32
	killOnce sync.Once

	mu   sync.Mutex
	algo board.Algorithm
}

func newHandler(s *Session, identity Identity, conn ClientConn, slot int, algo board.Algorithm, logger *slog.Logger) *Handler {
	return &Handler{
		session:  s,
		identity: identity,
		conn:     conn,
		slot:     slot,
		algo:     algo,
		logger:   logger.WithGroup("handler"),
	}
}

// Identity returns the served client's identity.
func (h *Handler) Identity() Identity { return h.identity }

// Slot returns the stable per-session index assigned at subscribe time. Board
// ownership and game-state queries key off it.
func (h *Handler) Slot() int { return h.slot }

// Addr returns the local address of the client's dedicated serving socket.
func (h *Handler) Addr() string { return h.conn.LocalAddr() }

// Start moves the handler from Idle to Active and begins serving requests.
// Starting an already active or dead handler is a no-op.
func (h *Handler) Start() {
	if !h.state.CompareAndSwap(stateIdle, stateActive) {
		return
	}
	go h.serve()
}

// Kill terminates the handler and releases its socket. It is idempotent and
// unblocks a pending receive.
func (h *Handler) Kill() {
	h.killOnce.Do(func() {
		h.state.Store(stateDead)
		if err := h.conn.Close(); err != nil {
			h.logger.Error("Failed to close client socket", slog.String("error", err.Error()))
		}
	})
}

// Send delivers a message to the served client.
func (h *Handler) Send(msg *protocol.Message) error {
	return h.conn.Send(msg)
}

// ReissueBoard swaps in the session's fresh board algorithm, keeping the
// handler attached across a restart.
func (h *Handler) ReissueBoard(algo board.Algorithm) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.algo = algo
}

func (h *Handler) board() board.Algorithm {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.algo
}

func (h *Handler) serve() {
	for {
		msg, _, err := h.conn.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrMalformed) {
				h.logger.Error(
					"Dropping malformed request",
					slog.String("address", h.identity.Addr),
					slog.String("error", err.Error()),
				)
				continue
			}
			if transport.IsClosed(err) || h.state.Load() == stateDead {
				return
			}
			h.targetDied(err)
			return
		}

		h.dispatch(msg)
	}
}

// targetDied handles a detected peer loss: the handler dies, the client is
// detached from the session through the matchmaking layer, and the socket is
// released.
func (h *Handler) targetDied(cause error) {
	h.logger.Info(
		"Client unreachable, disconnecting",
		slog.String("address", h.identity.Addr),
		slog.String("error", cause.Error()),
	)

	h.state.Store(stateDead)
	if h.session.disconnect != nil {
		h.session.disconnect(h.identity.Addr, h.session.kind.Name)
	} else {
		h.session.RemoveClient(h.identity.Addr)
	}
	h.Kill()
}

func (h *Handler) dispatch(msg *protocol.Message) {
	kind := h.session.kind

	switch msg.Type() {
	case protocol.MsgTypePlayerSign:
		h.reply(protocol.New(protocol.MsgTypePlayerSign).
			Set("sign", string(kind.PlayerSign)))

	case protocol.MsgTypePlayer2Sign:
		h.reply(protocol.New(protocol.MsgTypePlayer2Sign).
			Set("sign", string(kind.ComputerSign)))

	case protocol.MsgTypePlayerMove:
		move := board.Move{Row: msg.Int("row"), Column: msg.Int("column")}
		success := h.board().ApplyMove(move, kind.PlayerSign, h.slot)

		h.reply(protocol.New(protocol.MsgTypePlayerMove).Set("success", success))

		relay := protocol.New(protocol.MsgTypePlayer2Move).
			Set("row", move.Row).
			Set("column", move.Column)
		h.session.NotifyOthers(h.identity.Addr, relay)

	case protocol.MsgTypeComputerMove:
		move, ok := h.board().ComputeMove(kind.ComputerSign)
		if !ok {
			h.logger.Debug("No computer move available", slog.String("game", kind.Name))
			return
		}
		h.session.NotifyAll(protocol.New(protocol.MsgTypePlayer2Move).
			Set("row", move.Row).
			Set("column", move.Column))

	case protocol.MsgTypePlacePlayer:
		move := board.Move{Row: msg.Int("row"), Column: msg.Int("column")}
		h.board().Place(move, kind.PlayerSign)
		h.session.NotifyOthers(h.identity.Addr, protocol.New(protocol.MsgTypePlayer2Move).
			Set("row", move.Row).
			Set("column", move.Column))

	case protocol.MsgTypePlaceComputer:
		move := board.Move{Row: msg.Int("row"), Column: msg.Int("column")}
		h.board().Place(move, kind.ComputerSign)

	case protocol.MsgTypePlayerRandom:
		move, ok := h.board().RandomMove(kind.PlayerSign, h.slot)
		if !ok {
			h.logger.Debug("No random move available", slog.String("game", kind.Name))
			return
		}
		reply := protocol.New(protocol.MsgTypePlayerRandom).
			Set("row", move.Row).
			Set("column", move.Column)
		h.reply(reply)
		h.session.NotifyOthers(h.identity.Addr, reply.SetType(protocol.MsgTypePlayer2Move))

	case protocol.MsgTypeComputerRandom:
		move, ok := h.board().RandomComputerMove(kind.ComputerSign)
		if !ok {
			h.logger.Debug("No random computer move available", slog.String("game", kind.Name))
			return
		}
		reply := protocol.New(protocol.MsgTypeComputerRandom).
			Set("row", move.Row).
			Set("column", move.Column)
		h.reply(reply)
		h.session.NotifyOthers(h.identity.Addr, reply.SetType(protocol.MsgTypePlayer2Move))

	case protocol.MsgTypeIsOver:
		over := h.attemptEndgame()
		h.reply(protocol.New(protocol.MsgTypeIsOver).Set("over", over))

	case protocol.MsgTypeForceLoss:
		h.endGame(board.StatePlayerLost)

	default:
		h.logger.Error(
			"Unrecognized message type",
			slog.String("message_type", msg.Type()),
			slog.String("address", h.identity.Addr),
		)
	}
}

// attemptEndgame checks the board for a terminal state as seen by this
// client's slot and, if the game is over, notifies the client and pauses the
// session. It reports whether the game ended.
func (h *Handler) attemptEndgame() bool {
	state := h.board().State(h.session.kind.PlayerSign, h.slot)
	if state == board.StateInProgress {
		return false
	}
	h.endGame(state)
	return true
}

func (h *Handler) endGame(state board.State) {
	h.session.Pause(true)
	h.reply(protocol.New(protocol.MsgTypeEndGame).
		Set("game", h.session.kind.Name).
		Set("state", string(state)))
}

// reply sends to the served client, logging instead of failing: a single lost
// datagram never kills the handler.
func (h *Handler) reply(msg *protocol.Message) {
	if err := h.conn.Send(msg); err != nil {
		h.logger.Error(
			"Failed to reply to client",
			slog.String("message_type", msg.Type()),
			slog.String("address", h.identity.Addr),
			slog.String("error", err.Error()),
		)
	}
}
