package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Niv-Kor/PlayerTwoServer/internal/matchmaking"
	"github.com/Niv-Kor/PlayerTwoServer/internal/session"
	"github.com/Niv-Kor/PlayerTwoServer/internal/transport"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
	pubevts "github.com/Niv-Kor/PlayerTwoServer/pkg/events"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

// ErrCapacityExceeded is returned when a join would push the served client
// count over the configured limit.
var ErrCapacityExceeded = errors.New("client capacity exceeded")

// Publisher receives session lifecycle events.
type Publisher interface {
	PublishSessionCreated(ctx context.Context, event pubevts.SessionCreatedEvent) error
	PublishPlayerJoined(ctx context.Context, event pubevts.PlayerJoinedEvent) error
	PublishSessionStarted(ctx context.Context, event pubevts.SessionStartedEvent) error
	PublishSessionEnded(ctx context.Context, event pubevts.SessionEndedEvent) error
}

// Controller translates lobby requests into matchmaking operations. Each
// admitted client gets a freshly dialed serving socket whose address is
// carried back in the join reply, so all further game traffic bypasses the
// lobby listener.
type Controller struct {
	logger     *slog.Logger
	service    *matchmaking.Service
	publisher  Publisher
	limit      atomic.Int64
	startDelay time.Duration
	dial       func(peer string) (session.ClientConn, error)
}

// NewController creates a session controller over the given matchmaking
// service. Lifecycle events are published best-effort.
func NewController(
	logger *slog.Logger,
	service *matchmaking.Service,
	pub Publisher,
	maxClients int,
	startDelay time.Duration,
) *Controller {
	c := &Controller{
		logger:     logger.WithGroup("controller"),
		service:    service,
		publisher:  pub,
		startDelay: startDelay,
		dial: func(peer string) (session.ClientConn, error) {
			return transport.Dial(peer)
		},
	}
	c.limit.Store(int64(maxClients))
	return c
}

// SetClientLimit replaces the global concurrent-client limit.
func (c *Controller) SetClientLimit(limit int) {
	c.limit.Store(int64(limit))
	c.logger.Info("Client limit updated", slog.Int("limit", limit))
}

// Join admits a client into a session of the requested game kind and replies
// with the admission result. The reply carries the dedicated serving socket's
// address on success, or available=false when the server is full or the game
// kind is unknown. A duplicate join replies with the client's existing
// serving address and changes nothing.
func (c *Controller) Join(msg *protocol.Message, from string, reply func(*protocol.Message) error) error {
	var (
		game         = msg.String("game")
		name         = msg.String("name")
		avatar       = msg.String("avatar")
		addr         = msg.String("address")
		reserved     = msg.Bool("reserved")
		solo         = msg.Bool("single_player")
		reservations = msg.Strings("reservations")
	)
	if addr == "" {
		addr = from
	}

	refuse := func() {
		refusal := protocol.New(protocol.MsgTypeNewClient).
			Set("game", game).
			Set("available", false)
		if err := reply(refusal); err != nil {
			c.logger.Error("Failed to send refusal", slog.String("error", err.Error()))
		}
	}

	if int64(c.service.ClientCount()) >= c.limit.Load() {
		refuse()
		return fmt.Errorf("could not admit %s: %w", addr, ErrCapacityExceeded)
	}

	conn, err := c.dial(addr)
	if err != nil {
		refuse()
		return fmt.Errorf("could not open serving socket for %s: %w", addr, err)
	}

	identity := session.Identity{Name: name, Avatar: avatar, Addr: addr, Solo: solo}
	sess, already, err := c.service.JoinOrCreate(identity, game, reservations, reserved, conn)
	if err != nil {
		conn.Close()
		refuse()
		return fmt.Errorf("could not join %s to %s: %w", addr, game, err)
	}

	if already {
		conn.Close()
		servingAddr := ""
		for _, sub := range sess.Subscribers() {
			if sub.Identity().Addr == addr {
				servingAddr = sub.Handler().Addr()
				break
			}
		}
		admission := protocol.New(protocol.MsgTypeNewClient).
			Set("game", game).
			Set("available", true).
			Set("address", servingAddr)
		return reply(admission)
	}

	c.publishJoin(sess, identity, len(reservations) > 0)

	admission := protocol.New(protocol.MsgTypeNewClient).
		Set("game", game).
		Set("available", true).
		Set("address", conn.LocalAddr())
	if err := reply(admission); err != nil {
		return fmt.Errorf("could not send admission to %s: %w", addr, err)
	}

	if sess.CanRun() && !sess.Running() {
		go c.startSession(sess)
	}
	return nil
}

// Leave removes a client from its session of the given kind.
func (c *Controller) Leave(msg *protocol.Message, from string) {
	game := msg.String("game")
	addr := msg.String("address")
	if addr == "" {
		addr = from
	}

	sess := c.service.Close(addr, game)
	if sess == nil {
		return
	}

	c.logger.Info(
		"Client left session",
		slog.String("session_id", sess.ID()),
		slog.String("game", game),
		slog.String("address", addr),
	)

	if err := c.publisher.PublishSessionEnded(context.Background(), pubevts.SessionEndedEvent{
		SessionID: sess.ID(),
		Game:      game,
		State:     string(board.StatePartnerDisconnected),
		EndedAt:   time.Now().UTC(),
	}); err != nil {
		c.logger.Warn("Failed to publish session ended event", slog.String("error", err.Error()))
	}
}

// Restart reissues the board of the session a satisfied client is playing
// and starts the next round. Requests from clients that are not playing are
// ignored, and a session that lost its partner gets no start broadcast.
func (c *Controller) Restart(msg *protocol.Message, from string) {
	game := msg.String("game")
	addr := msg.String("address")
	if addr == "" {
		addr = from
	}

	sess := c.service.Reissue(addr, game)
	if sess == nil || !sess.CanRun() {
		return
	}
	go c.startSession(sess)
}

// ForceCloseAll tells every playing client its game ended mid-play, then
// tears all sessions down.
func (c *Controller) ForceCloseAll() {
	for _, sess := range c.service.Sessions() {
		deathNote := protocol.New(protocol.MsgTypeEndGame).
			Set("game", sess.Kind().Name).
			Set("state", string(board.StateInProgress))
		sess.NotifyAll(deathNote)
		sess.Pause(true)

		for _, addr := range sess.Addresses() {
			c.service.Close(addr, sess.Kind().Name)
		}

		if err := c.publisher.PublishSessionEnded(context.Background(), pubevts.SessionEndedEvent{
			SessionID: sess.ID(),
			Game:      sess.Kind().Name,
			State:     string(board.StateInProgress),
			EndedAt:   time.Now().UTC(),
		}); err != nil {
			c.logger.Warn("Failed to publish session ended event", slog.String("error", err.Error()))
		}
	}
}

// startSession waits out the handshake delay, deals the turn order and
// activates the handlers. The first subscriber to have joined opens the game.
// A session drained below its goal during the delay is left alone.
func (c *Controller) startSession(sess *session.Session) {
	time.Sleep(c.startDelay)

	if !sess.CanRun() {
		return
	}

	subs := sess.Subscribers()
	for i, sub := range subs {
		names := make([]string, 0, len(subs)-1)
		avatars := make([]string, 0, len(subs)-1)
		for j, other := range subs {
			if j == i {
				continue
			}
			names = append(names, other.Identity().Name)
			avatars = append(avatars, other.Identity().Avatar)
		}

		opening := protocol.New(protocol.MsgTypeStartGame).
			Set("game", sess.Kind().Name).
			Set("turn", i == 0).
			Set("opponent_names", names).
			Set("opponent_avatars", avatars)
		if err := sub.Handler().Send(opening); err != nil {
			c.logger.Error(
				"Failed to send start broadcast",
				slog.String("session_id", sess.ID()),
				slog.String("address", sub.Identity().Addr),
				slog.String("error", err.Error()),
			)
		}
	}

	sess.Start()

	players := make([]string, 0, len(subs))
	for _, sub := range subs {
		players = append(players, sub.Identity().Name)
	}
	if err := c.publisher.PublishSessionStarted(context.Background(), pubevts.SessionStartedEvent{
		SessionID: sess.ID(),
		Game:      sess.Kind().Name,
		Players:   players,
		StartedAt: time.Now().UTC(),
	}); err != nil {
		c.logger.Warn("Failed to publish session started event", slog.String("error", err.Error()))
	}
}

func (c *Controller) publishJoin(sess *session.Session, identity session.Identity, hasReservations bool) {
	ctx := context.Background()

	subs := sess.Subscribers()
	if len(subs) == 1 {
		if err := c.publisher.PublishSessionCreated(ctx, pubevts.SessionCreatedEvent{
			SessionID: sess.ID(),
			Game:      sess.Kind().Name,
			HostName:  identity.Name,
			Reserved:  hasReservations,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			c.logger.Warn("Failed to publish session created event", slog.String("error", err.Error()))
		}
	}

	players := make([]string, 0, len(subs))
	for _, sub := range subs {
		players = append(players, sub.Identity().Name)
	}
	if err := c.publisher.PublishPlayerJoined(ctx, pubevts.PlayerJoinedEvent{
		SessionID:   sess.ID(),
		Game:        sess.Kind().Name,
		PlayerName:  identity.Name,
		PlayerCount: len(players),
		Players:     players,
		JoinedAt:    time.Now().UTC(),
	}); err != nil {
		c.logger.Warn("Failed to publish player joined event", slog.String("error", err.Error()))
	}
}
