package matchmaking

import (
	"net"
	"sync"

	"github.com/Niv-Kor/PlayerTwoServer/internal/session"
	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

var _ session.ClientConn = &connMock{}

// connMock is a stand-in client connection. Receive blocks until the
// connection is closed so that handler serve loops, if started, stay idle.
type connMock struct {
	addr string

	mu        sync.Mutex
	closed    bool
	closedCh  chan struct{}
	closeOnce sync.Once
	sent      []*protocol.Message
}

func newConnMock(addr string) *connMock {
	return &connMock{
		addr:     addr,
		closedCh: make(chan struct{}),
	}
}

func (m *connMock) Send(msg *protocol.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *connMock) Receive() (*protocol.Message, string, error) {
	<-m.closedCh
	return nil, "", net.ErrClosed
}

func (m *connMock) LocalAddr() string { return m.addr }

func (m *connMock) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.closedCh)
	})
	return nil
}

func (m *connMock) wasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *connMock) sentTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		types = append(types, msg.Type())
	}
	return types
}
