package usecase

// Notifier fans events out to real-time channels. The hub implements it.
type Notifier interface {
	Emit(channel, event string, data interface{}, exceptClientID string) error
}

type nopNotifier struct{}

func (nopNotifier) Emit(string, string, interface{}, string) error { return nil }
