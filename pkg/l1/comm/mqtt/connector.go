package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMetaTopic extracts the reference from a meta topic.
func ParseMetaTopic(topic string) (ref l1.ControllerRef, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != "meta" {
		return
	}
	ref = l1.ControllerRef{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// Discover implements Connector. Bridges with cleared metadata are skipped.
func (c *Connector) Discover(ctx context.Context) (res []l1.ControllerInfo, err error) {
	q := NewQueue(c.options, c.topicPrefix)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()

	resCh := make(chan l1.ControllerInfo, 16)
	sub := q.Sub("+/+/meta", func(topic string, payload []byte) {
		ref, ok := ParseMetaTopic(topic)
		if !ok || len(payload) == 0 {
			return
		}
		info := l1.ControllerInfo{Ref: ref}
		if err := json.Unmarshal(payload, &info.Meta); err != nil {
			glog.V(1).Infof("mqtt: bad meta on %q: %v", topic, err)
		}
		select {
		case resCh <- info:
		default:
		}
	})
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// Connect implements Connector. The connection works until ctx is done.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conn := &ControllerConn{Queue: NewQueue(c.options, c.topicPrefix)}
	conn.Init(NewPacketReadWriter(conn.Queue).ForConnector(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	go func() {
		conn.Run(ctx)
		conn.Queue.Close()
	}()
	return conn, nil
}

// ControllerConn implements ControllerConn using MQTT.
type ControllerConn struct {
	comm.ControllerConn
	Queue *Queue
}
