// Package hub keeps the channel subscriptions of connected clients and fans
// events out to them. A channel is either a user's personal channel (named by
// the user id) or a chat channel (named by the chat id).
package hub

import (
	"encoding/json"
	"sync"

	"real-time-messenger/config/logger"
)

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client            // clientId -> client
	channels map[string]map[string]*Client // channel -> clientId -> client

	broker Broker
	log    *logger.AppLogger
}

// New creates a hub and starts the broker so that published envelopes are
// delivered to this hub's clients.
func New(broker Broker, log *logger.AppLogger) (*Hub, error) {
	h := &Hub{
		clients:  make(map[string]*Client),
		channels: make(map[string]map[string]*Client),
		broker:   broker,
		log:      log,
	}
	if err := broker.Start(h.deliver); err != nil {
		return nil, err
	}
	return h, nil
}

// NewLocal builds a process-local hub.
func NewLocal(log *logger.AppLogger) *Hub {
	h, _ := New(NewLocalBroker(), log)
	return h
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.WS.Trace.Trace().Str("clientId", client.ID).Str("userId", client.UserID).Int("total", total).Msg("client registered")
}

// Unregister removes the client and drops all of its channel subscriptions.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client.ID)
	for _, channel := range client.Channels() {
		h.removeLocked(channel, client)
	}
	h.mu.Unlock()

	h.log.WS.Trace.Trace().Str("clientId", client.ID).Str("userId", client.UserID).Msg("client unregistered")
}

func (h *Hub) Join(channel string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[string]*Client)
	}
	h.channels[channel][client.ID] = client
	client.addChannel(channel)

	h.log.WS.Trace.Trace().Str("channel", channel).Str("userId", client.UserID).Int("members", len(h.channels[channel])).Msg("client joined channel")
}

func (h *Hub) Leave(channel string, client *Client) {
	h.mu.Lock()
	h.removeLocked(channel, client)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(channel string, client *Client) {
	client.removeChannel(channel)
	if members, ok := h.channels[channel]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
}

func (h *Hub) InChannel(channel string, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[channel][client.ID]
	return ok
}

// ChannelSize reports how many local clients are subscribed to channel.
func (h *Hub) ChannelSize(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Emit sends an event to every member of channel except the client with id exceptClientID.
func (h *Hub) Emit(channel, event string, data interface{}, exceptClientID string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return h.broker.Publish(Envelope{Channel: channel, Event: event, Data: raw, ExceptClient: exceptClientID})
}

// Broadcast sends an event to every connected client except exceptClientID.
func (h *Hub) Broadcast(event string, data interface{}, exceptClientID string) error {
	return h.Emit("", event, data, exceptClientID)
}

func (h *Hub) Close() error {
	return h.broker.Close()
}

func (h *Hub) deliver(envelope Envelope) {
	h.mu.RLock()
	var source map[string]*Client
	if envelope.Channel == "" {
		source = h.clients
	} else {
		source = h.channels[envelope.Channel]
	}
	targets := make([]*Client, 0, len(source))
	for id, client := range source {
		if id != envelope.ExceptClient {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.write(envelope.Event, envelope.Data); err != nil {
			h.log.WS.Warning.Warn().Err(err).Str("clientId", client.ID).Str("event", envelope.Event).Msg("error broadcasting event")
			// the read loop notices the closed socket and runs the disconnect path
			_ = client.Close()
		}
	}
}
