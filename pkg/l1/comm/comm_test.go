package comm

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

// chanRW is one end of an in-memory packet link.
type chanRW struct {
	in        <-chan []byte
	out       chan<- []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newLink() (*chanRW, *chanRW) {
	a, b := make(chan []byte, 16), make(chan []byte, 16)
	return &chanRW{in: a, out: b, closed: make(chan struct{})},
		&chanRW{in: b, out: a, closed: make(chan struct{})}
}

func (c *chanRW) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *chanRW) WritePacket(pkt []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.out <- pkt
	return nil
}

func (c *chanRW) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// autoReply answers every posted command with CommandOK.
type autoReply struct {
	lock   sync.Mutex
	posted []fx.Message
}

func (a *autoReply) PostMessage(msg fx.Message) {
	a.lock.Lock()
	a.posted = append(a.posted, msg)
	a.lock.Unlock()
	if cmdMsg, ok := msg.(*l1.CommandMsg); ok {
		cmdMsg.Command.Done(msgs.NewCommandOK())
	}
}

func (a *autoReply) TriggerNext() {}

func (a *autoReply) Posted() []fx.Message {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]fx.Message(nil), a.posted...)
}

func waitFor(t *testing.T, cond func() bool) {
	for i := 0; i < 200; i++ {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPipeSendKinds(t *testing.T) {
	a, _ := newLink()
	pipe := NewPipe(a)
	require.Equal(t, ErrNotEvent, pipe.SendEventMsg(&msgs.Twist{}))
	require.Equal(t, ErrNotCommand, pipe.SendCommandMsg(&msgs.Odometry{}, 1))
	require.Equal(t, msgs.ErrNotSerializable, pipe.SendEventMsg(&l1.CommandMsg{}))
	require.NoError(t, pipe.SendEventMsg(&msgs.BridgeStatus{State: "normal"}))
}

func TestPipeRepliesUndecodableCommand(t *testing.T) {
	a, b := newLink()
	pipe := NewPipe(a)
	done := make(chan error, 1)
	go func() { done <- pipe.Run(context.Background()) }()

	b.WritePacket([]byte{0xff, 0xff, 0xff})
	unknown, err := (&msgs.Typed{TypeId: msgs.GroupCustom | 0x42, Sequence: 7}).Encode()
	require.NoError(t, err)
	b.WritePacket(unknown)

	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(pkt)
	require.NoError(t, err)
	require.Equal(t, msgs.CommandErrTypeID, typed.TypeId)
	require.Equal(t, uint32(7), typed.Sequence)

	b.Close()
	a.Close()
	require.NoError(t, <-done)
}

func TestRegistrarAndControllerConn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bridgeEnd, clientEnd := newLink()

	loopCtl := &autoReply{}
	before := time.Now()
	var reg Registrar
	reg.Init(bridgeEnd)
	go reg.Pipe().Run(fx.WithLoopCtl(ctx, loopCtl))

	var conn ControllerConn
	conn.Init(clientEnd)
	go conn.Run(ctx)

	f := conn.DoCommand(&msgs.Twist{Linear: 0.2, Angular: 0.1})
	select {
	case r := <-f.ResultChan():
		require.NoError(t, r.Err)
		require.IsType(t, &msgs.CommandOK{}, r.Msg)
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}
	posted := loopCtl.Posted()
	require.Len(t, posted, 1)
	require.False(t, posted[0].(*l1.CommandMsg).ReceivedAt.Before(before))
	cmd := posted[0].(*l1.CommandMsg).Command.Msg().(*msgs.Twist)
	require.Equal(t, 0.2, cmd.Linear)
	require.Equal(t, 0.1, cmd.Angular)

	require.NoError(t, reg.SendEvent(ctx, &msgs.BridgeStatus{State: "degraded"}))
	select {
	case ev := <-conn.Events():
		require.Equal(t, "degraded", ev.(*msgs.BridgeStatus).State)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestControllerConnExpiration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, clientEnd := newLink()
	var conn ControllerConn
	conn.Init(clientEnd)
	conn.Expiration = 20 * time.Millisecond
	go conn.Run(ctx)

	f := conn.DoCommand(&msgs.StatusQuery{})
	select {
	case r := <-f.ResultChan():
		require.True(t, errors.Is(r.Err, context.DeadlineExceeded))
	case <-time.After(time.Second):
		t.Fatal("command not expired")
	}
}

type recordedCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *recordedCommand) Msg() fx.Message { return c.msg }

func (c *recordedCommand) Done(msg fx.Message) error {
	c.reply = msg
	return nil
}

func TestUnsupportedCommands(t *testing.T) {
	loop := fx.NewLoop()
	loop.Add(&UnsupportedCommands{})
	cmd := &recordedCommand{msg: &msgs.StatusQuery{}}
	loop.PostMessage(&l1.CommandMsg{Command: cmd})
	loop.RunIteration(context.Background())

	cmdErr, ok := cmd.reply.(*msgs.CommandErr)
	require.True(t, ok)
	require.Equal(t, msgs.ErrUnsupportedCommand.Error(), cmdErr.Message)
}

type failingRegistrar struct{ err error }

func (r *failingRegistrar) SendEvent(context.Context, fx.Message) error { return r.err }

func TestRegistrarMux(t *testing.T) {
	a, b := newLink()
	var reg Registrar
	reg.Init(a)
	boom := errors.New("boom")
	mux := &RegistrarMux{}
	mux.Add(&reg, &failingRegistrar{err: boom})

	err := mux.SendEvent(context.Background(), &msgs.BridgeStatus{})
	require.True(t, errors.Is(err, boom))
	_, err = b.ReadPacket()
	require.NoError(t, err)
}

func TestHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = fx.WithLoopCtl(ctx, &autoReply{})
	hub := NewHub()

	var servers, clients []*chanRW
	for i := 0; i < 2; i++ {
		server, client := newLink()
		servers, clients = append(servers, server), append(clients, client)
		go hub.Serve(ctx, server)
	}
	waitFor(t, func() bool { return hub.Len() == 2 })

	require.Equal(t, ErrNotEvent, hub.SendEvent(ctx, &msgs.Twist{}))
	require.NoError(t, hub.SendEvent(ctx, &msgs.BridgeStatus{State: "stopped"}))
	for _, c := range clients {
		pkt, err := c.ReadPacket()
		require.NoError(t, err)
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		require.Equal(t, msgs.BridgeStatusTypeID, typed.TypeId)
	}

	servers[0].Close()
	waitFor(t, func() bool { return hub.Len() == 1 })
}

// stalledRW never completes a write until released.
type stalledRW struct {
	release chan struct{}
	writes  int32
}

func (s *stalledRW) ReadPacket() ([]byte, error) {
	<-s.release
	return nil, io.EOF
}

func (s *stalledRW) WritePacket([]byte) error {
	atomic.AddInt32(&s.writes, 1)
	<-s.release
	return io.ErrClosedPipe
}

func TestEventQueueStalledSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stalled := &stalledRW{release: make(chan struct{})}
	defer close(stalled.release)
	hub := NewHub()
	go hub.Serve(ctx, stalled)
	waitFor(t, func() bool { return hub.Len() == 1 })

	q := NewEventQueue(hub, 4)
	go q.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			q.SendEvent(ctx, &msgs.BridgeStatus{State: "normal"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendEvent blocked on a stalled subscriber")
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&stalled.writes) == 1 })
	require.True(t, q.Len() <= 4)
	require.True(t, q.Dropped() >= 15)
}

func TestEventQueueForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := newLink()
	var reg Registrar
	reg.Init(a)
	q := NewEventQueue(&reg, 0)
	go q.Run(ctx)

	require.NoError(t, q.SendEvent(ctx, &msgs.BridgeStatus{State: "degraded"}))
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(pkt)
	require.NoError(t, err)
	require.Equal(t, msgs.BridgeStatusTypeID, typed.TypeId)
	require.Zero(t, q.Dropped())
}
