package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"real-time-messenger/config/logger"
)

// NATS subjects used to fan events out across instances.
const (
	SubjectPrefix    = "messenger"
	SubjectChannel   = SubjectPrefix + ".channel"   // + .<channel>
	SubjectBroadcast = SubjectPrefix + ".broadcast" // every client
)

type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
}

func DefaultNATSConfig(url, name string) NATSConfig {
	return NATSConfig{
		URL:           url,
		Name:          name,
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NATSBroker publishes envelopes on NATS and hands every envelope it receives,
// including its own, to the local hub. Each instance therefore delivers only to
// the clients it holds.
type NATSBroker struct {
	conn *nats.Conn
	log  *logger.AppLogger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSBroker(config NATSConfig, log *logger.AppLogger) (*NATSBroker, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WS.Warning.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WS.Info.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.WS.Info.Info().Msg("nats connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.WS.Info.Info().Str("url", nc.ConnectedUrl()).Msg("nats connected")

	return &NATSBroker{conn: nc, log: log}, nil
}

func channelSubject(channel string) string {
	if channel == "" {
		return SubjectBroadcast
	}
	return SubjectChannel + "." + channel
}

func (b *NATSBroker) Start(deliver func(Envelope)) error {
	handler := func(msg *nats.Msg) {
		var envelope Envelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			b.log.WS.Error.Error().Err(err).Str("subject", msg.Subject).Msg("nats envelope decode failed")
			return
		}
		deliver(envelope)
	}

	for _, subject := range []string{SubjectChannel + ".>", SubjectBroadcast} {
		sub, err := b.conn.Subscribe(subject, handler)
		if err != nil {
			return fmt.Errorf("nats subscribe %s: %w", subject, err)
		}
		b.mu.Lock()
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
	}
	return nil
}

func (b *NATSBroker) Publish(envelope Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return b.conn.Publish(channelSubject(envelope.Channel), data)
}

func (b *NATSBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if err := sub.Drain(); err != nil {
			b.log.WS.Warning.Warn().Err(err).Str("subject", sub.Subject).Msg("nats drain failed")
		}
	}
	b.subs = nil
	return b.conn.Drain()
}
