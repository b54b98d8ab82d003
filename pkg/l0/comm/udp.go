package comm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"
)

// UDP is the datagram transport. Each datagram carries one packet.
type UDP struct {
	conn   *net.UDPConn
	remote *net.UDPAddr

	closeOnce sync.Once
	closed    chan struct{}
	recvLock  sync.Mutex
	buf       []byte
}

// OpenUDP binds the local address and targets the remote one.
func OpenUDP(conf UDPConfig) (*UDP, error) {
	remote, err := net.ResolveUDPAddr("udp", conf.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve remote %q: %w", conf.RemoteAddr, err)
	}
	local, err := net.ResolveUDPAddr("udp", conf.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve local %q: %w", conf.LocalAddr, err)
	}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", conf.LocalAddr, err)
	}
	return NewUDP(conn, remote), nil
}

// NewUDP creates the transport from a bound connection.
func NewUDP(conn *net.UDPConn, remote *net.UDPAddr) *UDP {
	return &UDP{
		conn:   conn,
		remote: remote,
		closed: make(chan struct{}),
		buf:    make([]byte, MaxFrameSize),
	}
}

// LocalAddr returns the bound address.
func (t *UDP) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Send implements Transport.
func (t *UDP) Send(b []byte) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}
	_, err := t.conn.WriteToUDP(b, t.remote)
	return err
}

// Receive implements Transport. Datagrams not from the remote host are dropped.
func (t *UDP) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t.recvLock.Lock()
	defer t.recvLock.Unlock()
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, t.mapErr(err)
		}
		n, from, err := t.conn.ReadFromUDP(t.buf)
		if err != nil {
			return nil, t.mapErr(err)
		}
		if !from.IP.Equal(t.remote.IP) {
			glog.V(2).Infof("udp: drop %d bytes from %s", n, from)
			continue
		}
		pkt := make([]byte, n)
		copy(pkt, t.buf[:n])
		return pkt, nil
	}
}

// drainWait is how long Drain waits for a datagram already in flight.
const drainWait = 100 * time.Microsecond

// Drain implements Drainer.
func (t *UDP) Drain() (n int) {
	t.recvLock.Lock()
	defer t.recvLock.Unlock()
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(drainWait)); err != nil {
			return
		}
		if _, _, err := t.conn.ReadFromUDP(t.buf); err != nil {
			return
		}
		n++
	}
}

func (t *UDP) mapErr(err error) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return err
}

// Close implements io.Closer. It is safe to call more than once and
// unblocks a pending Receive.
func (t *UDP) Close() (err error) {
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.conn.Close()
	})
	return
}
