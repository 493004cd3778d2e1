package dht

import (
	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Option configures a DHT.
type Option func(*DHT)

// WithClock sets the clock used for timestamps, sleeps and the capture deadline.
func WithClock(c clock.Clock) Option {
	return func(dht *DHT) {
		dht.clock = c
	}
}

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(dht *DHT) {
		dht.logger = logger
	}
}
