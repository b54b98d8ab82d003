package controller

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
	"github.com/robotalks/cugo.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/cugo.go/pkg/l1/comm/stream"
	"github.com/robotalks/cugo.go/pkg/l1/comm/websocket"
	"github.com/robotalks/cugo.go/pkg/l1/env"
)

// DefaultType is the controller type of the bridge.
const DefaultType = "cugo"

// Config provides common options to expose the bridge.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebsocketAddr is the listen address of the websocket endpoint.
	WebsocketAddr string
	// StreamAddr is the listen address of the TCP endpoint.
	StreamAddr string
}

var defaultConfig = Config{
	Info: l1.ControllerInfo{
		Ref: l1.ControllerRef{Type: DefaultType},
		Meta: l1.ControllerMeta{
			Description: "differential drive bridge",
		},
	},
	MQTTBrokerURL: "mqtt://localhost:1883/cugo/",
}

func init() {
	if val := os.Getenv("CUGO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("CUGO_WS_ADDR"); val != "" {
		defaultConfig.WebsocketAddr = val
	}
	if val := os.Getenv("CUGO_TCP_ADDR"); val != "" {
		defaultConfig.StreamAddr = val
	}
	if val := os.Getenv("CUGO_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws-addr", defaultConfig.WebsocketAddr, "Websocket listen address, empty to disable")
	flag.StringVar(&defaultConfig.StreamAddr, "tcp-addr", defaultConfig.StreamAddr, "TCP listen address, empty to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the env exposing the bridge.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	Hub          *comm.Hub
	// Events is where the loop publishes, it never blocks on a slow port.
	Events *comm.EventQueue

	servers []fx.Runnable
}

// ErrNoRegistrar indicates all endpoints are disabled.
var ErrNoRegistrar = errors.New("at least one of mqtt, websocket, tcp is required")

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar: %w", err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.WebsocketAddr != "" || c.StreamAddr != "" {
		e.Hub = comm.NewHub()
		e.Registrar.Add(e.Hub)
	}
	if c.WebsocketAddr != "" {
		e.servers = append(e.servers, &websocket.Server{Addr: c.WebsocketAddr, Hub: e.Hub})
		e.RegistryURLs = append(e.RegistryURLs, "ws://"+c.WebsocketAddr+websocket.DefaultPath)
	}
	if c.StreamAddr != "" {
		e.servers = append(e.servers, &stream.Server{Addr: c.StreamAddr, Hub: e.Hub})
		e.RegistryURLs = append(e.RegistryURLs, "tcp://"+c.StreamAddr)
	}
	if len(e.Registrar.Registrars) == 0 {
		return nil, ErrNoRegistrar
	}
	e.Events = comm.NewEventQueue(e.Registrar, comm.DefaultEventQueueSize)
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds registrars, servers and the fallback command handler to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar, e.Events)
	loop.AddRunnable(e.servers...)
	loop.Add(&comm.UnsupportedCommands{})
}
