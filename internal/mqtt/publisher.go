package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"nightshift-monitor/internal/daylight"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const deviceName = "nightshift"

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "nightshift-monitor-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
	}, nil
}

func (p *Publisher) topic(name string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, deviceName, name)
}

// decisionTopics maps topic names to plain-text payloads. Times are empty
// when no source produced a schedule.
func decisionTopics(d *daylight.Decision) map[string]string {
	topics := map[string]string{
		"night":     onOff(d.IsNight),
		"source":    string(d.Source),
		"available": strconv.FormatBool(d.NightShiftAvailable),
		"sunrise":   "",
		"sunset":    "",
	}
	if d.HasSchedule() {
		topics["sunrise"] = d.Sunrise.Format(time.RFC3339)
		topics["sunset"] = d.Sunset.Format(time.RFC3339)
	}
	return topics
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func (p *Publisher) Publish(d *daylight.Decision) error {
	if !p.enabled {
		return nil
	}

	for name, payload := range decisionTopics(d) {
		topic := p.topic(name)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	statusJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	token := p.client.Publish(p.topic("status"), 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

type discoveryEntry struct {
	Topic   string
	Payload map[string]interface{}
}

func (p *Publisher) discoveryEntries() []discoveryEntry {
	device := map[string]interface{}{
		"identifiers":  []string{"nightshift_monitor"},
		"name":         "Night Shift Monitor",
		"manufacturer": "nightshift-monitor",
		"model":        "Night Shift schedule",
	}

	night := map[string]interface{}{
		"name":        "Night",
		"unique_id":   "nightshift_night",
		"state_topic": p.topic("night"),
		"payload_on":  "ON",
		"payload_off": "OFF",
		"icon":        "mdi:weather-night",
		"device":      device,
	}

	entries := []discoveryEntry{{
		Topic:   "homeassistant/binary_sensor/nightshift/night/config",
		Payload: night,
	}}

	for _, s := range []struct{ ID, Name, DeviceClass string }{
		{"sunrise", "Sunrise", "timestamp"},
		{"sunset", "Sunset", "timestamp"},
		{"source", "Daylight Source", ""},
	} {
		cfg := map[string]interface{}{
			"name":        s.Name,
			"unique_id":   "nightshift_" + s.ID,
			"state_topic": p.topic(s.ID),
			"device":      device,
		}
		if s.DeviceClass != "" {
			cfg["device_class"] = s.DeviceClass
		}
		entries = append(entries, discoveryEntry{
			Topic:   fmt.Sprintf("homeassistant/sensor/nightshift/%s/config", s.ID),
			Payload: cfg,
		})
	}

	return entries
}

func (p *Publisher) PublishHomeAssistantDiscovery() error {
	if !p.enabled {
		return nil
	}

	for _, entry := range p.discoveryEntries() {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal discovery for %s: %w", entry.Topic, err)
		}
		token := p.client.Publish(entry.Topic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish discovery to %s: %v", entry.Topic, token.Error())
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
