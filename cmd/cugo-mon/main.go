package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/cugo.go/pkg/cli/sh"
	"github.com/robotalks/cugo.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/cugo/"
	asJSON  bool
)

func init() {
	if val := os.Getenv("CUGO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&asJSON, "json", asJSON, "Print messages in JSON.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if tok := q.Connect(); tok.Wait() && tok.Error() != nil {
		log.Fatalln(tok.Error())
	}
	defer q.Close()

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/meta") {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		out, err := sh.FormatMessage(msg, asJSON)
		if err != nil {
			log.Printf("%s: %v", topic, err)
			return
		}
		log.Printf("%s: seq=%d %s", topic, typed.Sequence, out)
	}))
	<-(chan struct{})(nil)
}
