package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Niv-Kor/PlayerTwoServer/internal/transport"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

// Server runs the lobby: a single listener socket taking new_client,
// leaving_client and happy_client requests, gated by typed operator control
// events. Game traffic never passes through here; admitted clients talk to
// their dedicated serving sockets.
type Server struct {
	logger     *slog.Logger
	conn       *transport.Conn
	controller *Controller
	control    chan ControlEvent
}

// New creates a lobby server over the given listener socket. The server
// starts out closed; send a StartEvent to begin accepting clients.
func New(logger *slog.Logger, conn *transport.Conn, controller *Controller) *Server {
	return &Server{
		logger:     logger.WithGroup("server"),
		conn:       conn,
		controller: controller,
		control:    make(chan ControlEvent, 8),
	}
}

// Control returns the channel operator commands are sent on.
func (s *Server) Control() chan<- ControlEvent {
	return s.control
}

// Addr returns the lobby listener's bound address.
func (s *Server) Addr() string {
	return s.conn.LocalAddr()
}

// Run serves lobby requests and control events until the context is
// cancelled or the listener socket is closed. On cancellation every session
// is force-closed before returning.
func (s *Server) Run(ctx context.Context) error {
	type datagram struct {
		msg  *protocol.Message
		from string
	}

	incoming := make(chan datagram)
	go func() {
		defer close(incoming)
		for {
			msg, from, err := s.conn.Receive()
			if err != nil {
				if errors.Is(err, transport.ErrMalformed) {
					s.logger.Warn(
						"Dropping malformed lobby datagram",
						slog.String("from", from),
						slog.String("error", err.Error()),
					)
					continue
				}
				if !transport.IsClosed(err) {
					s.logger.Error("Lobby receive failed", slog.String("error", err.Error()))
				}
				return
			}
			incoming <- datagram{msg: msg, from: from}
		}
	}()

	s.logger.Info("Lobby listening", slog.String("address", s.conn.LocalAddr()))

	accepting := false
	for {
		select {
		case <-ctx.Done():
			s.controller.ForceCloseAll()
			s.conn.Close()
			return nil

		case evt := <-s.control:
			switch e := evt.(type) {
			case StartEvent:
				accepting = true
				s.logger.Info("Server open for clients")
			case ShutdownEvent:
				accepting = false
				s.controller.ForceCloseAll()
				s.logger.Info("Server closed, all sessions dropped")
			case SetClientLimitEvent:
				s.controller.SetClientLimit(e.Limit)
			}

		case d, ok := <-incoming:
			if !ok {
				s.controller.ForceCloseAll()
				return nil
			}
			s.handle(d.msg, d.from, accepting)
		}
	}
}

func (s *Server) handle(msg *protocol.Message, from string, accepting bool) {
	switch msg.Type() {
	case protocol.MsgTypeNewClient:
		if !accepting {
			refusal := protocol.New(protocol.MsgTypeNewClient).
				Set("game", msg.String("game")).
				Set("available", false)
			if err := s.conn.SendTo(from, refusal); err != nil {
				s.logger.Error("Failed to refuse client", slog.String("error", err.Error()))
			}
			return
		}

		reply := func(out *protocol.Message) error {
			return s.conn.SendTo(from, out)
		}
		if err := s.controller.Join(msg, from, reply); err != nil {
			s.logger.Warn("Join refused", slog.String("from", from), slog.String("error", err.Error()))
		}

	case protocol.MsgTypeLeavingClient:
		s.controller.Leave(msg, from)

	case protocol.MsgTypeHappyClient:
		s.controller.Restart(msg, from)

	default:
		s.logger.Debug(
			"Unexpected lobby message",
			slog.String("type", msg.Type()),
			slog.String("from", from),
		)
	}
}
