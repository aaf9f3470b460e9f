package transport

import (
	"errors"
	"fmt"
	"net"

	"github.com/Niv-Kor/PlayerTwoServer/pkg/protocol"
)

// Practical ceiling for a UDP payload.
const maxDatagramSize = 64 * 1024

// ErrMalformed marks a datagram that arrived but could not be decoded.
// It is recoverable: the socket stays usable and the caller should keep
// receiving.
var ErrMalformed = errors.New("malformed datagram")

// Conn is a single UDP socket speaking the flat message codec.
//
// A listener conn (Listen) receives from any peer and addresses each send
// explicitly. A dialed conn (Dial) is bound to one peer; its reads fail with
// an ICMP-driven error once the peer becomes unreachable, which is the
// disconnect-detection signal for per-client workers.
type Conn struct {
	sock      *net.UDPConn
	connected bool
}

// Listen binds a socket on the given address. Use ":0" for an ephemeral port.
func Listen(addr string) (*Conn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not resolve listen address %q: %w", addr, err)
	}

	sock, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %q: %w", addr, err)
	}
	return &Conn{sock: sock}, nil
}

// Dial binds an ephemeral socket connected to the given peer address.
func Dial(peer string) (*Conn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", peer)
	if err != nil {
		return nil, fmt.Errorf("could not resolve peer address %q: %w", peer, err)
	}

	sock, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("could not dial %q: %w", peer, err)
	}
	return &Conn{sock: sock, connected: true}, nil
}

// LocalAddr returns the socket's bound address.
func (c *Conn) LocalAddr() string {
	return c.sock.LocalAddr().String()
}

// Send delivers a message to the dialed peer.
func (c *Conn) Send(msg *protocol.Message) error {
	if !c.connected {
		return errors.New("send on unconnected socket requires SendTo")
	}

	data, err := msg.Encode()
	if err != nil {
		return err
	}
	if _, err := c.sock.Write(data); err != nil {
		return fmt.Errorf("could not send %s message: %w", msg.Type(), err)
	}
	return nil
}

// SendTo delivers a message to an explicit address from a listener socket.
func (c *Conn) SendTo(addr string, msg *protocol.Message) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("could not resolve address %q: %w", addr, err)
	}

	data, err := msg.Encode()
	if err != nil {
		return err
	}
	if _, err := c.sock.WriteToUDP(data, udpAddr); err != nil {
		return fmt.Errorf("could not send %s message to %s: %w", msg.Type(), addr, err)
	}
	return nil
}

// Receive blocks for the next datagram and decodes it, returning the sender
// address. A decode failure is reported as ErrMalformed and leaves the socket
// usable; any other error means the socket is closed or the peer is gone.
func (c *Conn) Receive() (*protocol.Message, string, error) {
	buf := make([]byte, maxDatagramSize)

	var (
		n    int
		from string
		err  error
	)
	if c.connected {
		n, err = c.sock.Read(buf)
		if addr := c.sock.RemoteAddr(); addr != nil {
			from = addr.String()
		}
	} else {
		var sender *net.UDPAddr
		n, sender, err = c.sock.ReadFromUDP(buf)
		if sender != nil {
			from = sender.String()
		}
	}
	if err != nil {
		return nil, "", err
	}

	msg, err := protocol.Decode(buf[:n])
	if err != nil {
		return nil, from, fmt.Errorf("%w: %s", ErrMalformed, err.Error())
	}
	return msg, from, nil
}

// Close releases the socket, unblocking any pending receive. Closing twice is
// harmless.
func (c *Conn) Close() error {
	if err := c.sock.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// IsClosed reports whether an error came from a deliberately closed socket.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
