package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rumatoest/gpio-sensors/dht"
)

const (
	// DefaultListenAddress is where /metrics is served.
	DefaultListenAddress = ":8080"
	// DefaultReadInterval is the time between two reads of a sensor.
	DefaultReadInterval = 30 * time.Second
	// DefaultLogLevel is used when log_level is not set.
	DefaultLogLevel = "info"
	// DefaultAttempts is used for sensors without attempts.
	DefaultAttempts = 3
)

// Config is the exporter configuration.
type Config struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadInterval  time.Duration `yaml:"read_interval"`
	LogLevel      string        `yaml:"log_level"`
	Sensors       []Sensor      `yaml:"sensors"`
}

// Sensor is one DHT sensor on its own pin.
type Sensor struct {
	// Name labels the sensor metrics.
	Name string `yaml:"name"`
	// Pin is the periph pin name, for example GPIO4.
	Pin string `yaml:"pin"`
	// Type is dht11, dht21, am2301, dht22 or am2302.
	Type string `yaml:"type"`
	// Attempts is the number of extra reads after a failed one.
	Attempts int `yaml:"attempts"`
}

// UnmarshalYAML sets DefaultAttempts when attempts is left out.
func (s *Sensor) UnmarshalYAML(value *yaml.Node) error {
	type plain Sensor
	p := plain{Attempts: DefaultAttempts}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Sensor(p)
	return nil
}

// Default returns the configuration without any sensors.
func Default() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		ReadInterval:  DefaultReadInterval,
		LogLevel:      DefaultLogLevel,
	}
}

// Load reads the YAML file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen_address is required")
	}
	if c.ReadInterval <= 0 {
		return errors.Errorf("read_interval must be positive, got %v", c.ReadInterval)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	if len(c.Sensors) == 0 {
		return errors.New("at least one sensor is required")
	}

	names := map[string]bool{}
	pins := map[string]bool{}
	for i, s := range c.Sensors {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "sensors[%d]", i)
		}
		if names[s.Name] {
			return errors.Errorf("sensors[%d]: duplicate name %q", i, s.Name)
		}
		if pins[s.Pin] {
			return errors.Errorf("sensors[%d]: pin %q already used", i, s.Pin)
		}
		names[s.Name] = true
		pins[s.Pin] = true
	}
	return nil
}

// Validate checks a single sensor entry.
func (s Sensor) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Pin == "" {
		return errors.New("pin is required")
	}
	if _, err := s.Variant(); err != nil {
		return err
	}
	if s.Attempts < 0 {
		return errors.Errorf("attempts must not be negative, got %d", s.Attempts)
	}
	return nil
}

// Variant returns the parsed sensor type.
func (s Sensor) Variant() (dht.Variant, error) {
	return dht.ParseVariant(s.Type)
}
