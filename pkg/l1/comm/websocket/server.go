package websocket

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
)

// DefaultPath is the default HTTP path of the websocket endpoint.
const DefaultPath = "/ws"

// Server accepts websocket connections and attaches them to a Hub.
type Server struct {
	Addr string
	Path string
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

// Serve serves on an opened listener until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		glog.Infof("websocket: %s connected", conn.Request().RemoteAddr)
		rw := New(conn)
		err := fx.RunWithContextCloser(ctx, rw, func() error {
			return s.Hub.Serve(ctx, rw)
		})
		glog.Infof("websocket: %s disconnected: %v", conn.Request().RemoteAddr, err)
	}))
	srv := &http.Server{Handler: mux}
	return fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}
