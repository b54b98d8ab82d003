package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"

	"golang.org/x/net/websocket"

	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
	"github.com/robotalks/cugo.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/cugo.go/pkg/l1/comm/stream"
	ws "github.com/robotalks/cugo.go/pkg/l1/comm/websocket"
)

// Config provides common options to reach a bridge.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL specifies where the bridge is registered.
	// e.g. mqtt://host:port/topic-prefix, ws://host:port/ws, tcp://host:port
	RegistryURL string
}

var defaultConfig = Config{
	Ref:         l1.ControllerRef{Type: "cugo"},
	RegistryURL: "mqtt://localhost:1883/cugo/",
}

func init() {
	if val := os.Getenv("CUGO_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("CUGO_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("CUGO_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "bridge-type", defaultConfig.Ref.Type, "Bridge type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "bridge-id", defaultConfig.Ref.ID, "Bridge ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "bridge-reg", defaultConfig.RegistryURL, "Bridge registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "mqtts":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return &directConnector{url: parsedURL, dial: dialWebsocket}, nil
	case "tcp":
		return &directConnector{url: parsedURL, dial: dialStream}, nil
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect connects to the bridge until ctx is done.
func (c *Config) Connect(ctx context.Context) (l1.ControllerConn, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("bridge type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}

// MustConnect connects to the bridge or fails.
func (c *Config) MustConnect(ctx context.Context) l1.ControllerConn {
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// directConnector reaches a single bridge listening at the URL.
type directConnector struct {
	url  *url.URL
	dial func(*url.URL) (comm.PacketReadWriter, error)
}

func (c *directConnector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return []l1.ControllerInfo{{Ref: l1.ControllerRef{Type: "cugo", ID: c.url.Host}}}, nil
}

func (c *directConnector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	rw, err := c.dial(c.url)
	if err != nil {
		return nil, err
	}
	conn := &comm.ControllerConn{}
	conn.Init(rw)
	go conn.Run(ctx)
	return conn, nil
}

func dialWebsocket(u *url.URL) (comm.PacketReadWriter, error) {
	origin := "http://" + u.Host + "/"
	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, err
	}
	return ws.New(conn), nil
}

func dialStream(u *url.URL) (comm.PacketReadWriter, error) {
	conn, err := net.Dial("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	return stream.New(conn), nil
}
