package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Niv-Kor/PlayerTwoServer/pkg/board"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/logutils"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullSession subscribes two clients and returns the session together with
// both mock sockets, alice first.
func fullSession(t *testing.T, disconnect func(addr, kindName string)) (*Session, *connMock, *connMock) {
	t.Helper()

	s := New(ticTacToeKind(t), nil, disconnect, logutils.NewNoop())

	aliceConn := newConnMock("srv:1")
	s.Subscribe(Identity{Name: "alice", Addr: "127.0.0.1:7001"}, aliceConn)

	bobConn := newConnMock("srv:2")
	s.Subscribe(Identity{Name: "bob", Addr: "127.0.0.1:7002"}, bobConn)

	return s, aliceConn, bobConn
}

func TestHandler_signQueries(t *testing.T) {
	t.Parallel()

	s, aliceConn, _ := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypePlayerSign))
	alice.dispatch(protocol.New(protocol.MsgTypePlayer2Sign))

	msgs := aliceConn.sentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "X", msgs[0].String("sign"))
	assert.Equal(t, "O", msgs[1].String("sign"))
}

func TestHandler_playerMove(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 1).Set("column", 2))

	// sender gets a success reply, the partner gets the relayed move
	reply := aliceConn.lastSent()
	require.NotNil(t, reply)
	assert.Equal(t, protocol.MsgTypePlayerMove, reply.Type())
	assert.True(t, reply.Bool("success"))

	relay := bobConn.lastSent()
	require.NotNil(t, relay)
	assert.Equal(t, protocol.MsgTypePlayer2Move, relay.Type())
	assert.Equal(t, 1, relay.Int("row"))
	assert.Equal(t, 2, relay.Int("column"))

	// an occupied cell is rejected
	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 1).Set("column", 2))
	assert.False(t, aliceConn.lastSent().Bool("success"))
}

func TestHandler_computerMoveNotifiesAll(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypeComputerMove))

	require.Len(t, aliceConn.sentMessages(), 1)
	require.Len(t, bobConn.sentMessages(), 1)
	assert.Equal(t, protocol.MsgTypePlayer2Move, aliceConn.lastSent().Type())
	assert.Equal(t, protocol.MsgTypePlayer2Move, bobConn.lastSent().Type())
}

func TestHandler_playerRandom(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypePlayerRandom))

	reply := aliceConn.lastSent()
	require.NotNil(t, reply)

	relay := bobConn.lastSent()
	require.NotNil(t, relay)
	assert.Equal(t, protocol.MsgTypePlayer2Move, relay.Type())
	assert.Equal(t, reply.Int("row"), relay.Int("row"))
	assert.Equal(t, reply.Int("column"), relay.Int("column"))
}

func TestHandler_placePlayer(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypePlacePlayer).Set("row", 1).Set("column", 1))

	// a placement is relayed to the partner but never acknowledged
	assert.Empty(t, aliceConn.sentMessages())
	relay := bobConn.lastSent()
	require.NotNil(t, relay)
	assert.Equal(t, protocol.MsgTypePlayer2Move, relay.Type())
	assert.Equal(t, 1, relay.Int("row"))
	assert.Equal(t, 1, relay.Int("column"))

	// placements write blindly: an occupied cell is overwritten and relayed again
	alice.dispatch(protocol.New(protocol.MsgTypePlacePlayer).Set("row", 1).Set("column", 1))
	assert.Len(t, bobConn.sentMessages(), 2)

	// the cell really was written
	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 1).Set("column", 1))
	assert.False(t, aliceConn.lastSent().Bool("success"))
}

func TestHandler_placeComputer(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypePlaceComputer).Set("row", 0).Set("column", 2))

	// a computer placement is a silent board write, nothing goes out
	assert.Empty(t, aliceConn.sentMessages())
	assert.Empty(t, bobConn.sentMessages())

	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 0).Set("column", 2))
	assert.False(t, aliceConn.lastSent().Bool("success"))
}

func TestHandler_computerRandom(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypeComputerRandom))

	reply := aliceConn.lastSent()
	require.NotNil(t, reply)

	relay := bobConn.lastSent()
	require.NotNil(t, relay)
	assert.Equal(t, protocol.MsgTypePlayer2Move, relay.Type())
	assert.Equal(t, reply.Int("row"), relay.Int("row"))
	assert.Equal(t, reply.Int("column"), relay.Int("column"))

	// the drawn cell is taken on the board
	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).
		Set("row", relay.Int("row")).
		Set("column", relay.Int("column")))
	assert.False(t, aliceConn.lastSent().Bool("success"))
}

func TestHandler_isOver(t *testing.T) {
	t.Parallel()

	s, aliceConn, _ := fullSession(t, nil)
	s.Start()
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypeIsOver))
	assert.False(t, aliceConn.lastSent().Bool("over"))
	assert.True(t, s.Running())

	// complete a winning line for alice's slot
	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 0).Set("column", 0))
	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 1).Set("column", 1))
	alice.dispatch(protocol.New(protocol.MsgTypePlayerMove).Set("row", 2).Set("column", 2))

	alice.dispatch(protocol.New(protocol.MsgTypeIsOver))

	msgs := aliceConn.sentMessages()
	require.GreaterOrEqual(t, len(msgs), 2)

	// an end_game notice precedes the is_over reply
	endGame := msgs[len(msgs)-2]
	assert.Equal(t, protocol.MsgTypeEndGame, endGame.Type())
	assert.Equal(t, string(board.StatePlayerWon), endGame.String("state"))

	reply := msgs[len(msgs)-1]
	assert.Equal(t, protocol.MsgTypeIsOver, reply.Type())
	assert.True(t, reply.Bool("over"))

	assert.False(t, s.Running())
}

func TestHandler_forceLoss(t *testing.T) {
	t.Parallel()

	s, aliceConn, _ := fullSession(t, nil)
	s.Start()
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New(protocol.MsgTypeForceLoss))

	notice := aliceConn.lastSent()
	require.NotNil(t, notice)
	assert.Equal(t, protocol.MsgTypeEndGame, notice.Type())
	assert.Equal(t, string(board.StatePlayerLost), notice.String("state"))
	assert.False(t, s.Running())
}

func TestHandler_unrecognizedMessageIsIgnored(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	alice := s.Subscribers()[0].Handler()

	alice.dispatch(protocol.New("warp_drive"))

	assert.Empty(t, aliceConn.sentMessages())
	assert.Empty(t, bobConn.sentMessages())
}

func TestHandler_killUnblocksServe(t *testing.T) {
	t.Parallel()

	s, _, _ := fullSession(t, nil)
	s.Start()
	alice := s.Subscribers()[0].Handler()

	alice.Kill()
	alice.Kill() // idempotent

	// the session keeps both subscribers: a kill is not a disconnect
	assert.Eventually(t, func() bool {
		return len(s.Subscribers()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_peerLossDisconnects(t *testing.T) {
	t.Parallel()

	var (
		mu           sync.Mutex
		disconnected []string
	)
	disconnect := func(addr, kindName string) {
		mu.Lock()
		disconnected = append(disconnected, addr+"/"+kindName)
		mu.Unlock()
	}

	s, aliceConn, _ := fullSession(t, disconnect)
	s.Start()

	// a transport failure that is neither a close nor a malformed datagram
	// means the peer is gone
	go func() { aliceConn.recvErrCh <- errors.New("connection refused") }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(disconnected) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"127.0.0.1:7001/TIC_TAC_TOE"}, disconnected)
	mu.Unlock()

	assert.True(t, aliceConn.wasClosed())
}

func TestHandler_peerLossWithoutRouterFallsBackToSession(t *testing.T) {
	t.Parallel()

	s, aliceConn, bobConn := fullSession(t, nil)
	s.Start()

	go func() { aliceConn.recvErrCh <- errors.New("connection refused") }()

	require.Eventually(t, func() bool {
		return len(s.Subscribers()) == 1
	}, time.Second, 10*time.Millisecond)

	notice := bobConn.lastSent()
	require.NotNil(t, notice)
	assert.Equal(t, protocol.MsgTypeEndGame, notice.Type())
	assert.Equal(t, string(board.StatePartnerDisconnected), notice.String("state"))
}
