package dht

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

func TestDecodeCycles(t *testing.T) {
	var cycles [cycleBuckets]uint32
	cycles[0], cycles[1], cycles[2] = 3, 80, 80

	want := Payload{0xA5, 0x0F, 0x00, 0xFF, 0xB3}
	for i := 0; i < payloadBits; i++ {
		cycles[2*i+3] = 50
		if want[i/8]&(0x80>>uint(i%8)) != 0 {
			cycles[2*i+4] = 70
		} else {
			cycles[2*i+4] = 27
		}
	}
	assert.Equal(t, want, decodeCycles(&cycles))

	// equal low and high counts are a 0
	for i := 0; i < payloadBits; i++ {
		cycles[2*i+3], cycles[2*i+4] = 40, 40
	}
	assert.Equal(t, Payload{}, decodeCycles(&cycles))
}

func TestReadRawDHT11(t *testing.T) {
	dht, _, _, hook := newTestDHT(t, DHT11, sends(Payload{45, 0, 23, 0, 68}))

	reading, err := dht.readRaw()
	require.NoError(t, err)
	assert.InDelta(t, 45.0, reading.Humidity(), 1e-9)
	assert.InDelta(t, 23.0, reading.Celsius(), 1e-9)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "DHT11 on GPIO4: readings 2D 0 17 0  44 == 44 (checksum)", hook.LastEntry().Message)
}

func TestReadRawFailures(t *testing.T) {
	tests := []struct {
		name         string
		transactions []transaction
		cause        error
		message      string
	}{
		{
			name:         "checksum mismatch",
			transactions: []transaction{sends(dht22BadPayload)},
			cause:        ErrChecksum,
			message:      "got 0x95, want 0x94: dht: checksum failure",
		},
		{
			name:         "sensor stops sending",
			transactions: []transaction{stalls()},
			cause:        ErrTimeout,
		},
		{
			name:    "no sensor",
			cause:   ErrTimeout,
			message: "10ms after 0 of 83 half pulses: dht: reading time exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dht, pin, _, _ := newTestDHT(t, DHT22, tt.transactions...)

			reading, err := dht.readRaw()
			require.Error(t, err)
			assert.Equal(t, tt.cause, errors.Cause(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
			assert.Equal(t, Reading{}, reading)
			assert.True(t, dht.last.At.IsZero())

			// the line is left high after a failed capture too
			assert.Equal(t, gpio.High, pin.outs[len(pin.outs)-1])
		})
	}
}

func TestReadRawOverlappingSensors(t *testing.T) {
	a, pinA, _, _ := newTestDHT(t, DHT22, sends(dht22Payload))
	b, pinB, _, _ := newTestDHT(t, DHT11, sends(Payload{45, 0, 23, 0, 68}))

	gcPercent := debug.SetGCPercent(100)
	t.Cleanup(func() { debug.SetGCPercent(gcPercent) })

	// while a is capturing, b starts a read of its own on another goroutine
	entered := make(chan struct{})
	pinB.onIn = func() { close(entered) }
	done := make(chan error, 1)
	overlapped := false
	pinA.onIn = func() {
		go func() {
			_, err := b.readRaw()
			done <- err
		}()
		select {
		case <-entered:
			overlapped = true
		case <-time.After(50 * time.Millisecond):
		}
	}

	_, err := a.readRaw()
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.False(t, overlapped, "b released its line during the capture of a")
	assert.Equal(t, 100, debug.SetGCPercent(100))
}
