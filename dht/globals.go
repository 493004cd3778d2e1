package dht

import (
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// TemperatureUnit is the temperature unit wanted, either Celsius or Fahrenheit
type TemperatureUnit int

const (
	// Celsius temperature unit
	Celsius TemperatureUnit = iota
	// Fahrenheit temperature unit
	Fahrenheit
)

// Variant is the sensor part. It decides how the payload bytes are decoded.
type Variant int

const (
	// DHT11 reports integer humidity and temperature
	DHT11 Variant = iota + 1
	// DHT21 aka AM2301
	DHT21
	// DHT22 aka AM2302
	DHT22
)

const (
	// MinimumCache is how long Read returns the last reading without touching the sensor.
	MinimumCache = 1250 * time.Millisecond
	// CacheOnError is how old a cached reading may be and still be returned when a read fails.
	CacheOnError = 5 * time.Second
	// RetryBackoff is the sleep between ReadUntil attempts after a timeout.
	RetryBackoff = 150 * time.Millisecond
	// StartLowHold is how long the start signal holds the line low. The sensor needs at least 18ms.
	StartLowHold = 20 * time.Millisecond
	// SettleTime is the wait after the line is first driven high.
	SettleTime = 250 * time.Millisecond
	// CaptureTimeout bounds the edge capture.
	CaptureTimeout = 10 * time.Millisecond
)

const (
	// response low, response high, then a low and a high half pulse per bit
	cycleBuckets = 83
	payloadBits  = 40
	// samples between deadline checks in the capture loop
	deadlineCheckInterval = 64
)

// DHT struct to interface with the sensor.
// Call NewDHT or New to create a new one.
//
// A DHT owns its pin and is not safe for concurrent use.
type DHT struct {
	pin     gpio.PinIO
	variant Variant
	clock   clock.Clock
	logger  log.FieldLogger
	// last checksum-valid reading, zero At when there is none
	last Reading
}
