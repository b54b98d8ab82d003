package stream

import (
	"context"
	"net"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
)

// Server accepts TCP connections and attaches them to a Hub.
type Server struct {
	Addr string
	Hub  *comm.Hub
}

// Run implements Runnable. The context must carry the loop control
// receiving commands.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on an opened listener until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.serveConn(ctx, conn)
			}()
		}
	})
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	glog.Infof("stream: %s connected", conn.RemoteAddr())
	rw := New(conn)
	err := fx.RunWithContextCloser(ctx, rw, func() error {
		return s.Hub.Serve(ctx, rw)
	})
	glog.Infof("stream: %s disconnected: %v", conn.RemoteAddr(), err)
}
