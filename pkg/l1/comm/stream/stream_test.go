package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Error(t, err)
}

func TestReadWriterOversize(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(MaxPacketSize+1))
	_, err := New(&buf).ReadPacket()
	require.Error(t, err)
	require.Error(t, New(&buf).WritePacket(make([]byte, MaxPacketSize+1)))
}

type commandSink chan *l1.CommandMsg

func (s commandSink) PostMessage(msg fx.Message) {
	if cmdMsg, ok := msg.(*l1.CommandMsg); ok {
		s <- cmdMsg
	}
}

func (s commandSink) TriggerNext() {}

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	sink := make(commandSink, 1)
	ctx, cancel := context.WithCancel(fx.WithLoopCtl(context.Background(), sink))
	hub := comm.NewHub()
	srv := &Server{Hub: hub}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	var client comm.ControllerConn
	client.Init(New(conn))
	go client.Run(ctx)

	f := client.DoCommand(&msgs.Twist{Linear: 0.5})
	var cmdMsg *l1.CommandMsg
	select {
	case cmdMsg = <-sink:
	case <-time.After(time.Second):
		t.Fatal("command not received")
	}
	require.Equal(t, 0.5, cmdMsg.Command.Msg().(*msgs.Twist).Linear)
	require.NoError(t, cmdMsg.Command.Done(msgs.NewCommandOK()))
	r := <-f.ResultChan()
	require.NoError(t, r.Err)

	require.NoError(t, hub.SendEvent(ctx, &msgs.Odometry{FrameId: "odom"}))
	select {
	case ev := <-client.Events():
		require.Equal(t, "odom", ev.(*msgs.Odometry).FrameId)
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server not stopped")
	}
	require.Equal(t, 0, hub.Len())
}
