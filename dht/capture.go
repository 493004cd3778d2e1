package dht

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// captureMu allows one capture at a time in the process.
// The GC percent is a process wide setting and two busy loops would starve each other.
var captureMu sync.Mutex

// readRaw does one transaction with the sensor.
// Only a checksum-valid payload is stored as the last reading.
func (dht *DHT) readRaw() (Reading, error) {
	var cycles [cycleBuckets]uint32

	err := dht.capture(&cycles)

	// set pin to high so ready for next time
	if errOut := dht.pin.Out(gpio.High); errOut != nil && err == nil {
		err = errors.Wrap(errOut, "pin out high error")
	}
	if err != nil {
		return Reading{}, err
	}

	data := decodeCycles(&cycles)
	dht.logger.Debugf("%v: readings %X %X %X %X  %X == %X (checksum)",
		dht, data[0], data[1], data[2], data[3], data[4], data.Checksum())

	if !data.Valid() {
		return Reading{}, errors.Wrapf(ErrChecksum, "got %#02x, want %#02x", data[4], data.Checksum())
	}

	dht.last = Reading{Variant: dht.variant, Payload: data, At: dht.clock.Now()}
	return dht.last, nil
}

// capture sends the start signal and counts samples per half pulse into cycles.
//
// cycles[0] is the line before the sensor answers, cycles[1] and cycles[2] the
// ~80us low and high response, then cycles[3+2i] and cycles[4+2i] the ~50us low
// and the 26-28us (0) or 70us (1) high of bit i.
// Counting samples instead of reading the time keeps the loop fast, and a low
// and the high after it are counted by the same loop so they compare fine.
func (dht *DHT) capture(cycles *[cycleBuckets]uint32) error {
	captureMu.Lock()
	defer captureMu.Unlock()

	// send start low, high, then low for at least 18ms so the sensor wakes up
	if err := dht.pin.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "pin out low error")
	}
	if err := dht.pin.Out(gpio.High); err != nil {
		return errors.Wrap(err, "pin out high error")
	}
	if err := dht.pin.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "pin out low error")
	}
	dht.clock.Sleep(StartLowHold)

	// keep the scheduler and garbage collector away during critical timing part
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	gcPercent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gcPercent)

	// release the line, the pull up raises it until the sensor pulls it low
	if err := dht.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return errors.Wrap(err, "pin in error")
	}
	deadline := dht.clock.Now().Add(CaptureTimeout)

	var samples uint32
	i := 0
	for i < cycleBuckets {
		// even buckets are high, odd buckets are low
		if (dht.pin.Read() == gpio.High) == (i%2 == 0) {
			cycles[i]++
		} else {
			i++
		}

		samples++
		if samples%deadlineCheckInterval == 0 && dht.clock.Now().After(deadline) {
			return errors.Wrapf(ErrTimeout, "%v after %d of %d half pulses", CaptureTimeout, i, cycleBuckets)
		}
	}

	return nil
}

// decodeCycles turns the captured half pulses into the payload, most significant bit first.
// A bit is 1 when its high lasted longer than its low.
func decodeCycles(cycles *[cycleBuckets]uint32) Payload {
	var data Payload
	for i := 0; i < payloadBits; i++ {
		low := cycles[2*i+3]
		high := cycles[2*i+4]

		data[i/8] <<= 1
		if high > low {
			data[i/8] |= 1
		}
	}
	return data
}
