package comm

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newUDPPair(t *testing.T) (*UDP, *UDP) {
	loopback := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)}
	connA, err := net.ListenUDP("udp", loopback)
	require.NoError(t, err)
	connB, err := net.ListenUDP("udp", loopback)
	require.NoError(t, err)
	a := NewUDP(connA, connB.LocalAddr().(*net.UDPAddr))
	b := NewUDP(connB, connA.LocalAddr().(*net.UDPAddr))
	return a, b
}

func TestUDPExchange(t *testing.T) {
	a, b := newUDPPair(t)
	defer a.Close()
	defer b.Close()

	out := NewRPMPacket(1, 2, 30, -30).Bytes()
	require.NoError(t, a.Send(out))
	in, err := b.Receive(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, out, in)

	back := NewCountPacket(2, 1, 5, 6).Bytes()
	require.NoError(t, b.Send(back))
	in, err = a.Receive(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, back, in)
}

func TestUDPTimeout(t *testing.T) {
	a, b := newUDPPair(t)
	defer a.Close()
	defer b.Close()

	start := time.Now()
	_, err := a.Receive(context.Background(), 20*time.Millisecond)
	require.Equal(t, ErrTimeout, err)
	require.True(t, time.Since(start) < time.Second)
}

func TestUDPCloseUnblocksReceive(t *testing.T) {
	a, b := newUDPPair(t)
	defer b.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := a.Receive(context.Background(), 10*time.Second)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	select {
	case err := <-errCh:
		require.Equal(t, ErrClosed, err)
	case <-time.After(time.Second):
		t.Fatal("receive not unblocked by close")
	}
	require.Equal(t, ErrClosed, a.Send([]byte{1}))
}

func TestUDPContextCanceled(t *testing.T) {
	a, b := newUDPPair(t)
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Receive(ctx, time.Second)
	require.Equal(t, context.Canceled, err)
}

func TestOpenUDP(t *testing.T) {
	tr, err := Open(Config{Kind: KindUDP, UDP: UDPConfig{LocalAddr: "127.0.0.1:0", RemoteAddr: "127.0.0.1:9"}})
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	_, err = Open(Config{Kind: KindUDP, UDP: UDPConfig{LocalAddr: "127.0.0.1:0", RemoteAddr: "bad::addr::"}})
	require.Error(t, err)

	_, err = Open(Config{Kind: "carrier-pigeon"})
	require.Error(t, err)
}

func TestUDPDrainLateReplies(t *testing.T) {
	a, b := newUDPPair(t)
	defer a.Close()
	defer b.Close()

	late := NewCountPacket(2, 1, 1, 1).Bytes()
	require.NoError(t, b.Send(late))
	require.NoError(t, b.Send(late))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, a.Drain())
	_, err := a.Receive(context.Background(), 20*time.Millisecond)
	require.Equal(t, ErrTimeout, err)

	fresh := NewCountPacket(2, 1, 7, 8).Bytes()
	require.NoError(t, b.Send(fresh))
	in, err := a.Receive(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, fresh, in)
}
