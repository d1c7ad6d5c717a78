package hub

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"real-time-messenger/dto"
)

// Conn is the part of a websocket connection the hub writes to.
// *websocket.Conn from gofiber/contrib satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one authenticated connection. Writes are serialised because the
// underlying websocket does not allow concurrent writers.
type Client struct {
	ID     string
	UserID string

	conn    Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	channels map[string]struct{}
	closed   bool
}

func NewClient(userID string, conn Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		conn:     conn,
		channels: make(map[string]struct{}),
	}
}

// Emit marshals data and writes a single frame to this client only.
func (c *Client) Emit(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.write(event, raw)
}

func (c *Client) write(event string, raw json.RawMessage) error {
	frame, err := json.Marshal(dto.Frame{Event: event, Data: raw})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// Channels returns the channels this client is currently subscribed to.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	channels := make([]string, 0, len(c.channels))
	for channel := range c.channels {
		channels = append(channels, channel)
	}
	return channels
}

func (c *Client) addChannel(channel string) {
	c.mu.Lock()
	c.channels[channel] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeChannel(channel string) {
	c.mu.Lock()
	delete(c.channels, channel)
	c.mu.Unlock()
}
