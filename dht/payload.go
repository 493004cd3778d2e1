package dht

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ParseVariant returns the Variant for a sensor type name such as "dht22" or "am2302".
func ParseVariant(sensorType string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(sensorType)) {
	case "dht11":
		return DHT11, nil
	case "dht21", "am2301":
		return DHT21, nil
	case "dht22", "am2302":
		return DHT22, nil
	}
	return 0, errors.Wrapf(ErrInvalidVariant, "%q", sensorType)
}

func (v Variant) String() string {
	switch v {
	case DHT11:
		return "DHT11"
	case DHT21:
		return "DHT21"
	case DHT22:
		return "DHT22"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

func (v Variant) valid() bool {
	return v >= DHT11 && v <= DHT22
}

// Payload is the 40 bits sent by the sensor:
// humidity high, humidity low, temperature high, temperature low, checksum.
type Payload [5]byte

// Checksum is the low byte of the sum of the first four bytes.
func (p Payload) Checksum() byte {
	return p[0] + p[1] + p[2] + p[3]
}

// Valid reports whether the checksum byte matches the data bytes.
func (p Payload) Valid() bool {
	return p[4] == p.Checksum()
}

// Reading is a decoded, checksum-valid payload.
type Reading struct {
	Variant Variant
	Payload Payload
	// At is when the payload was read from the sensor.
	At time.Time
}

// Celsius returns the temperature in degrees Celsius.
func (r Reading) Celsius() float64 {
	if r.Variant == DHT11 {
		return float64(r.Payload[2])
	}
	// sign and magnitude, top bit of the high byte is the sign
	t := float64(int(r.Payload[2]&0x7F)<<8|int(r.Payload[3])) / 10.0
	if r.Payload[2]&0x80 != 0 {
		t = -t
	}
	return t
}

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (r Reading) Fahrenheit() float64 {
	return r.Celsius()*1.8 + 32.0
}

// Temperature returns the temperature in unit.
func (r Reading) Temperature(unit TemperatureUnit) float64 {
	if unit == Fahrenheit {
		return r.Fahrenheit()
	}
	return r.Celsius()
}

// Humidity returns the relative humidity in percent.
func (r Reading) Humidity() float64 {
	if r.Variant == DHT11 {
		return float64(r.Payload[0])
	}
	return float64(int(r.Payload[0])<<8|int(r.Payload[1])) / 10.0
}

// HeatIndexCelsius returns the heat index in degrees Celsius.
func (r Reading) HeatIndexCelsius() float64 {
	return HeatIndex(r.Celsius(), r.Humidity(), Celsius)
}

// HeatIndexFahrenheit returns the heat index in degrees Fahrenheit.
func (r Reading) HeatIndexFahrenheit() float64 {
	return HeatIndex(r.Fahrenheit(), r.Humidity(), Fahrenheit)
}

func (r Reading) String() string {
	return fmt.Sprintf("%v: temperature %.1f°C, humidity %.1f%%", r.Variant, r.Celsius(), r.Humidity())
}
