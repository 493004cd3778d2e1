package dht

import (
	"github.com/pkg/errors"
)

var (
	// ErrConnection is returned when the pin can not be found or driven at construction.
	ErrConnection = errors.New("dht: gpio line unavailable")
	// ErrTimeout is returned when the sensor did not send all 40 bits in time.
	ErrTimeout = errors.New("dht: reading time exceeded")
	// ErrChecksum is returned when the captured payload fails its checksum.
	ErrChecksum = errors.New("dht: checksum failure")
	// ErrInvalidVariant is returned for an unknown sensor type.
	ErrInvalidVariant = errors.New("dht: invalid sensor type")
)

// IsTimeout reports whether err was caused by a capture timeout.
func IsTimeout(err error) bool {
	return errors.Cause(err) == ErrTimeout
}

// IsChecksum reports whether err was caused by a checksum mismatch.
func IsChecksum(err error) bool {
	return errors.Cause(err) == ErrChecksum
}
