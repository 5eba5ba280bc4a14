package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher is the part of *nats.Conn the bridge needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSBridge forwards bus events to NATS subjects "<prefix>.<event type>".
type NATSBridge struct {
	pub    Publisher
	prefix string
	logger *zerolog.Logger
}

// ConnectNATS dials the broker with reconnects enabled.
func ConnectNATS(url, clientName string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return conn, nil
}

func NewNATSBridge(pub Publisher, prefix string, logger *zerolog.Logger) *NATSBridge {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NATSBridge{pub: pub, prefix: prefix, logger: logger}
}

// Subject returns the NATS subject for an event type.
func (n *NATSBridge) Subject(eventType string) string {
	if n.prefix == "" {
		return eventType
	}
	return n.prefix + "." + eventType
}

// Attach subscribes the bridge to the given event types on bus.
func (n *NATSBridge) Attach(bus *EventBus, eventTypes ...string) {
	for _, t := range eventTypes {
		bus.Subscribe(t, n.forward)
	}
}

func (n *NATSBridge) forward(event *Event) error {
	subject := n.Subject(event.Type)
	if err := n.pub.Publish(subject, event.Payload); err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Str("event_id", event.ID).Msg("nats publish failed")
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	n.logger.Debug().Str("subject", subject).Str("event_id", event.ID).Msg("event forwarded to nats")
	return nil
}
