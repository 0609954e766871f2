package app

import (
	"github.com/sirupsen/logrus"

	"notewire/internal/domain"
	"notewire/internal/relay"
	"notewire/internal/services/identity"
)

// Config holds runtime wiring options for building the engine.
type Config struct {
	Home     string          // data directory, e.g. $HOME/.notewire
	Settings domain.Settings // relay endpoints, auto-lock, timeouts
	Notifier domain.Notifier // optional; defaults to a no-op sink
	Logger   *logrus.Logger  // optional; defaults to the standard logger
	Dialer   relay.Dialer    // optional; defaults to the websocket dialer
	Clock    identity.Clock  // optional; defaults to the real clock
}

func (c Config) withDefaults() Config {
	if c.Notifier == nil {
		c.Notifier = domain.NopNotifier{}
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Dialer == nil {
		c.Dialer = relay.NewWebsocketDialer()
	}
	if c.Clock == nil {
		c.Clock = identity.RealClock()
	}
	return c
}
