package hub

import "encoding/json"

// Envelope is one outbound event addressed to a channel, or to every client
// when Channel is empty.
type Envelope struct {
	Channel      string          `json:"channel,omitempty"`
	Event        string          `json:"event"`
	Data         json.RawMessage `json:"data"`
	ExceptClient string          `json:"exceptClient,omitempty"`
}

// Broker carries envelopes from emitters to the hubs that deliver them.
type Broker interface {
	Start(deliver func(Envelope)) error
	Publish(envelope Envelope) error
	Close() error
}

// LocalBroker delivers synchronously inside this process, so an emitter's
// events reach clients in the order they were emitted.
type LocalBroker struct {
	deliver func(Envelope)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Start(deliver func(Envelope)) error {
	b.deliver = deliver
	return nil
}

func (b *LocalBroker) Publish(envelope Envelope) error {
	if b.deliver != nil {
		b.deliver(envelope)
	}
	return nil
}

func (b *LocalBroker) Close() error {
	return nil
}
