package session

import (
	"net"
	"sync"

	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

var _ ClientConn = &connMock{}

// connMock is a scriptable client socket. Receive is channel-driven so tests
// can feed requests to a running handler; Close unblocks it with net.ErrClosed
// like a real socket.
type connMock struct {
	mu        sync.Mutex
	sent      []*protocol.Message
	closed    bool
	localAddr string

	recvCh    chan *protocol.Message
	recvErrCh chan error
	closedCh  chan struct{}

	sendFunc func(msg *protocol.Message) error
}

func newConnMock(localAddr string) *connMock {
	return &connMock{
		localAddr: localAddr,
		recvCh:    make(chan *protocol.Message),
		recvErrCh: make(chan error),
		closedCh:  make(chan struct{}),
	}
}

func (m *connMock) Send(msg *protocol.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	if m.sendFunc != nil {
		return m.sendFunc(msg)
	}
	return nil
}

func (m *connMock) Receive() (*protocol.Message, string, error) {
	select {
	case msg := <-m.recvCh:
		return msg, "", nil
	case err := <-m.recvErrCh:
		return nil, "", err
	case <-m.closedCh:
		return nil, "", net.ErrClosed
	}
}

func (m *connMock) LocalAddr() string { return m.localAddr }

func (m *connMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

func (m *connMock) wasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *connMock) sentMessages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*protocol.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *connMock) sentTypes() []string {
	var out []string
	for _, msg := range m.sentMessages() {
		out = append(out, msg.Type())
	}
	return out
}

func (m *connMock) lastSent() *protocol.Message {
	msgs := m.sentMessages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}
