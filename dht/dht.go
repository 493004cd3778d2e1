package dht

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// HostInit calls periph.io host.Init(). This needs to be done before NewDHT can find pins.
func HostInit() error {
	_, err := host.Init()
	return err
}

// NewDHT to create a new DHT struct for the pin registered as pinName, for example "GPIO4".
func NewDHT(pinName string, variant Variant, opts ...Option) (*DHT, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Wrapf(ErrConnection, "pin %q not found", pinName)
	}
	return New(pin, variant, opts...)
}

// New creates a DHT on an already resolved pin.
// The pin is driven high and New sleeps SettleTime so the sensor is ready for the first read.
func New(pin gpio.PinIO, variant Variant, opts ...Option) (*DHT, error) {
	if !variant.valid() {
		return nil, errors.Wrapf(ErrInvalidVariant, "%v", variant)
	}

	dht := &DHT{
		pin:     pin,
		variant: variant,
		clock:   clock.New(),
		logger:  log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(dht)
	}

	// set pin to high so ready for first read
	if err := dht.pin.Out(gpio.High); err != nil {
		return nil, errors.Wrapf(ErrConnection, "pin out high error: %v", err)
	}
	dht.clock.Sleep(SettleTime)

	return dht, nil
}

// Variant returns the sensor type.
func (dht *DHT) Variant() Variant {
	return dht.variant
}

func (dht *DHT) String() string {
	return dht.variant.String() + " on " + dht.pin.Name()
}

// Close leaves the line high and halts the pin.
func (dht *DHT) Close() error {
	if err := dht.pin.Out(gpio.High); err != nil {
		return errors.Wrap(err, "pin out high error")
	}
	return dht.pin.Halt()
}

// lastAge returns how old the last reading is, false when there is none.
func (dht *DHT) lastAge() (time.Duration, bool) {
	if dht.last.At.IsZero() {
		return 0, false
	}
	return dht.clock.Since(dht.last.At), true
}

// Read returns the last reading if it is younger than MinimumCache,
// otherwise it reads the sensor once.
// If that read fails and the last reading is no older than CacheOnError, the last reading is returned instead.
func (dht *DHT) Read() (Reading, error) {
	if age, ok := dht.lastAge(); ok && age < MinimumCache {
		return dht.last, nil
	}

	reading, err := dht.readRaw()
	if err == nil {
		return reading, nil
	}

	if age, ok := dht.lastAge(); ok && age <= CacheOnError {
		dht.logger.Debugf("%v: returning reading from %v ago: %v", dht, age, err)
		return dht.last, nil
	}

	return Reading{}, err
}

// ReadUntil returns the last reading if it is younger than cache.
// Otherwise it calls Read until there is no error, up to 1 + attempts times.
// After a timeout it sleeps RetryBackoff before the next attempt, checksum failures are retried right away.
func (dht *DHT) ReadUntil(attempts int, cache time.Duration) (Reading, error) {
	if age, ok := dht.lastAge(); ok && age < cache {
		return dht.last, nil
	}

	if attempts < 0 {
		attempts = 0
	}

	var err error
	var reading Reading
	maxAttempts := 1 + attempts
	for i := 0; i < maxAttempts; i++ {
		reading, err = dht.Read()
		if err == nil {
			return reading, nil
		}
		if i == maxAttempts-1 {
			break
		}
		dht.logger.Debugf("%v: retrying error in read: %v", dht, err)
		if IsTimeout(err) {
			dht.clock.Sleep(RetryBackoff)
		}
	}

	return Reading{}, err
}

// ReadBackground it means to run in the background, run as a Goroutine.
// It calls ReadUntil with attempts every sleepDuration and passes the result to handle until ctx is done.
// Nothing else may use the DHT while ReadBackground runs.
func (dht *DHT) ReadBackground(ctx context.Context, sleepDuration time.Duration, attempts int, handle func(Reading, error)) {
	for {
		if ctx.Err() != nil {
			return
		}

		reading, err := dht.ReadUntil(attempts, 0)
		handle(reading, err)

		timer := dht.clock.Timer(sleepDuration)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
