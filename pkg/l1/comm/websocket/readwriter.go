package websocket

import (
	"time"

	"golang.org/x/net/websocket"

	"github.com/robotalks/cugo.go/pkg/l1/comm"
)

// ReadWriter implements PacketReadWriter. Each packet is a binary frame.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	return (*ReadWriter)(conn)
}

// Conn returns the underlying connection.
func (p *ReadWriter) Conn() *websocket.Conn {
	return (*websocket.Conn)(p)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn(), &pkt)
	return
}

// WritePacket implements PacketWriter. A write is bounded by
// comm.DefaultWriteTimeout.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := p.Conn().SetWriteDeadline(time.Now().Add(comm.DefaultWriteTimeout)); err != nil {
		return err
	}
	return websocket.Message.Send(p.Conn(), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.Conn().Close()
}
