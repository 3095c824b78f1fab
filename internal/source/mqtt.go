package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTOptions configures an MQTT subscription.
type MQTTOptions struct {
	// Broker is a URL such as tcp://localhost:1883.
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Username string
	Password string
	// StripPrefix is removed from topics to form channel names.
	StripPrefix string
}

// MQTT subscribes to a topic filter; every topic becomes a channel.
type MQTT struct {
	opts   MQTTOptions
	logger zerolog.Logger
}

// NewMQTT creates an MQTT source.
func NewMQTT(opts MQTTOptions, logger zerolog.Logger) *MQTT {
	if opts.ClientID == "" {
		opts.ClientID = fmt.Sprintf("msgspy-%d", time.Now().Unix())
	}
	return &MQTT{opts: opts, logger: logger}
}

// Name implements Source.
func (m *MQTT) Name() string { return "mqtt:" + m.opts.Broker + "/" + m.opts.Topic }

// Channel maps a topic to a channel name.
func (m *MQTT) Channel(topic string) string {
	if m.opts.StripPrefix != "" {
		if ch := strings.TrimPrefix(topic, m.opts.StripPrefix); ch != "" {
			return ch
		}
	}
	return topic
}

// Run implements Source. It connects, subscribes on every (re)connect and
// returns when ctx is done.
func (m *MQTT) Run(ctx context.Context, pub Publisher) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.opts.Broker)
	opts.SetClientID(m.opts.ClientID)
	if m.opts.Username != "" {
		opts.SetUsername(m.opts.Username)
		opts.SetPassword(m.opts.Password)
	}
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		pub.Publish(Message{
			Channel: m.Channel(msg.Topic()),
			Payload: msg.Payload(),
			Micros:  time.Now().UnixMicro(),
		})
	}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		m.logger.Info().Str("topic", m.opts.Topic).Msg("connected, subscribing")
		token := c.Subscribe(m.opts.Topic, m.opts.QoS, handler)
		if token.Wait() && token.Error() != nil {
			m.logger.Error().Err(token.Error()).Str("topic", m.opts.Topic).Msg("failed to subscribe")
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		m.logger.Warn().Err(err).Msg("connection lost, reconnecting")
	})

	client := mqtt.NewClient(opts)
	m.logger.Info().Str("broker", m.opts.Broker).Msg("connecting")
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", m.opts.Broker, token.Error())
	}

	<-ctx.Done()
	if client.IsConnected() {
		client.Disconnect(250)
	}
	m.logger.Info().Msg("disconnected")
	return nil
}
