package config

import (
	"real-time-messenger/config/common"
	"real-time-messenger/config/logger"
	"real-time-messenger/hub"
)

// NewBroker fans events out over NATS when NATS_URL is set so several
// instances can serve the same users. Otherwise delivery stays in process.
func NewBroker(cfg *common.Config, log *logger.AppLogger) (hub.Broker, error) {
	url := cfg.GetNatsURL()
	if url == "" {
		return hub.NewLocalBroker(), nil
	}
	return hub.NewNATSBroker(hub.DefaultNATSConfig(url, instanceName(cfg)), log)
}
