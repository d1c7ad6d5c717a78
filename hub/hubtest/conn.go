// Package hubtest provides a recording websocket connection for tests.
package hubtest

import (
	"encoding/json"
	"errors"
	"sync"

	"real-time-messenger/dto"
)

var ErrClosed = errors.New("hubtest: connection closed")

// Conn records every frame written to it.
type Conn struct {
	mu     sync.Mutex
	frames []dto.Frame
	closed bool
	// FailWrites makes every write return an error.
	FailWrites bool
}

func (c *Conn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.FailWrites {
		return ErrClosed
	}
	var frame dto.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) Frames() []dto.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dto.Frame(nil), c.frames...)
}

// Events returns the event names received, in order.
func (c *Conn) Events() []string {
	frames := c.Frames()
	events := make([]string, 0, len(frames))
	for _, frame := range frames {
		events = append(events, frame.Event)
	}
	return events
}

// Count returns how many frames carried event.
func (c *Conn) Count(event string) int {
	n := 0
	for _, name := range c.Events() {
		if name == event {
			n++
		}
	}
	return n
}

// Last decodes the data of the most recent frame carrying event into v.
func (c *Conn) Last(event string, v interface{}) bool {
	frames := c.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Event == event {
			return json.Unmarshal(frames[i].Data, v) == nil
		}
	}
	return false
}

func (c *Conn) Reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}
