package main

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/robotalks/flapchain/pkg/link/mqtt"
	"github.com/robotalks/flapchain/pkg/msgs"
	"github.com/robotalks/flapchain/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/flap/"
)

func init() {
	if val := os.Getenv("FLAP_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("+/+/"+telemetry.TopicMeta, mqtt.Handler(func(topic string, payload []byte) {
		if len(payload) == 0 {
			log.Printf("%s: gone", strings.TrimSuffix(topic, "/"+telemetry.TopicMeta))
			return
		}
		log.Printf("%s: %s", topic, string(payload))
	}))
	q.Sub("+/+/"+telemetry.TopicCycle, mqtt.Handler(func(topic string, payload []byte) {
		msg, err := msgs.Decode(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
			msg.(msgs.SerializableMessage).Serializable().String())
	}))
	<-(chan struct{})(nil)
}
