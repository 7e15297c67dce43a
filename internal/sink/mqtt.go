package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"backend-dtg/internal/telemetry"
)

const mqttTopicPrefix = "fleet/tracking/"

// mqttClient is the slice of mqtt.Client the publisher needs; tests
// substitute a fake.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher streams samples to an MQTT broker, one topic per vehicle.
type MQTTPublisher struct {
	client  mqttClient
	timeout time.Duration
}

func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

func NewMQTTPublisher(client mqtt.Client, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{client: client, timeout: timeout}
}

func (p *MQTTPublisher) SendSample(ctx context.Context, sample telemetry.Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}

	token := p.client.Publish(mqttTopicPrefix+sample.VehicleID, 0, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt publish timed out for vehicle %s", sample.VehicleID)
	}
	return token.Error()
}
