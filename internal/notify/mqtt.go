package notify

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ivlev/svgmotion/internal/director"
	"github.com/ivlev/svgmotion/internal/encoder"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "svgmotion/render"

const publishTimeout = 5 * time.Second

func init() {
	mqtt.ERROR = log.New(os.Stderr, "[!] mqtt: ", 0)
}

// Event is the JSON payload published for every render event.
type Event struct {
	Render string `json:"render"`
	State  string `json:"state"`
	Frame  int    `json:"frame"`
	Total  int    `json:"total"`
	Bytes  int    `json:"bytes,omitempty"`
}

// Connect opens a client to broker (e.g. tcp://localhost:1883).
func Connect(broker string) (mqtt.Client, error) {
	options := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("svgmotion-" + uuid.NewString()[:8]).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) { log.Printf("[*] MQTT connected to %s", broker) })
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}

// MQTTObserver publishes render events with QoS 1. Publish failures are
// logged and never abort the render.
type MQTTObserver struct {
	Render string // uuid identifying this render
	topic  string
	state  director.State
	total  int
	send   func(payload []byte) error
}

// NewMQTTObserver publishes events for a new render id to topic.
func NewMQTTObserver(client mqtt.Client, topic string) *MQTTObserver {
	return newObserver(topic, func(payload []byte) error {
		token := client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("publish to %s timed out", topic)
		}
		return token.Error()
	})
}

func newObserver(topic string, send func([]byte) error) *MQTTObserver {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTObserver{Render: uuid.NewString(), topic: topic, send: send}
}

// Close disconnects client after pending messages are delivered.
func Close(client mqtt.Client) {
	client.Disconnect(250)
}

func (m *MQTTObserver) StateChanged(s director.State) {
	m.state = s
	m.publish(Event{State: s.String(), Total: m.total})
}

func (m *MQTTObserver) FrameAdded(index, total int, _ image.Image) {
	m.total = total
	m.publish(Event{State: m.state.String(), Frame: index + 1, Total: total})
}

func (m *MQTTObserver) Finished(a *encoder.Artifact) {
	m.publish(Event{State: director.Finished.String(), Frame: m.total, Total: m.total, Bytes: len(a.Data)})
}

func (m *MQTTObserver) publish(e Event) {
	e.Render = m.Render
	b, err := json.Marshal(e)
	if err != nil {
		log.Printf("[!] mqtt: encode event: %v", err)
		return
	}
	if err := m.send(b); err != nil {
		log.Printf("[!] mqtt: %v", err)
	}
}
