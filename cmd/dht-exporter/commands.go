package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rumatoest/gpio-sensors/dht"
	"github.com/rumatoest/gpio-sensors/internal/config"
	"github.com/rumatoest/gpio-sensors/internal/metrics"
)

// CLI args
var (
	configPath   string
	logLevel     string
	sensorName   string
	sensorPin    string
	sensorType   string
	attempts     int
	listenAddr   string
	readInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Read sensors periodically and serve /metrics",
	Example: `  # Single DHT22 on GPIO4
  dht-exporter serve --pin GPIO4 --type dht22

  # Sensors from a config file, listen on another port
  dht-exporter serve --config /etc/dht-exporter.yaml --listen-address :9101`,
	RunE: runServe,
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read every sensor once and print the readings",
	RunE:  runRead,
}

type sensor struct {
	name     string
	attempts int
	dev      *dht.DHT
}

// loadConfig builds the configuration from --config or the single sensor flags,
// then applies the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if flagChanged(cmd, "attempts") {
			for i := range cfg.Sensors {
				cfg.Sensors[i].Attempts = attempts
			}
		}
	} else {
		cfg = config.Default()
		cfg.Sensors = []config.Sensor{{
			Name:     sensorName,
			Pin:      sensorPin,
			Type:     sensorType,
			Attempts: attempts,
		}}
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if flagChanged(cmd, "listen-address") {
		cfg.ListenAddress = listenAddr
	}
	if flagChanged(cmd, "read-interval") {
		cfg.ReadInterval = readInterval
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	return cfg, nil
}

// flagChanged reports whether the flag was set on cmd or on one of its parents.
func flagChanged(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name)
}

func openSensors(cfg *config.Config) ([]sensor, error) {
	if err := dht.HostInit(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}

	sensors := make([]sensor, 0, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		variant, _ := s.Variant()
		dev, err := dht.NewDHT(s.Pin, variant, dht.WithLogger(log.WithField("sensor", s.Name)))
		if err != nil {
			closeSensors(sensors)
			return nil, errors.Wrapf(err, "failed to open sensor %s", s.Name)
		}
		log.Infof("Opened: %s %v", s.Name, dev)
		sensors = append(sensors, sensor{name: s.Name, attempts: s.Attempts, dev: dev})
	}
	return sensors, nil
}

func closeSensors(sensors []sensor) {
	for _, s := range sensors {
		if err := s.dev.Close(); err != nil {
			log.Warnf("failed to close sensor %s: %s", s.name, err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sensors, err := openSensors(cfg)
	if err != nil {
		return err
	}
	defer closeSensors(sensors)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// one goroutine per sensor, each owns its DHT
	var wg sync.WaitGroup
	for _, s := range sensors {
		wg.Add(1)
		go func(s sensor) {
			defer wg.Done()
			s.dev.ReadBackground(ctx, cfg.ReadInterval, s.attempts, func(reading dht.Reading, err error) {
				m.Observe(s.name, reading, err)
				if err != nil {
					log.Errorf("failed to read from sensor %s: %s", s.name, err)
					return
				}
				log.Debugf("Received: %s %v", s.name, reading)
			})
		}(s)
	}

	mux := http.NewServeMux()
	// Expose the registered metrics via HTTP.
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	}))
	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	log.Infof("Listening on %s, reading %d sensor(s) every %v", cfg.ListenAddress, len(sensors), cfg.ReadInterval)

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err = <-serveErr:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	wg.Wait()

	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sensors, err := openSensors(cfg)
	if err != nil {
		return err
	}
	defer closeSensors(sensors)

	failed := 0
	for _, s := range sensors {
		reading, err := s.dev.ReadUntil(s.attempts, 0)
		if err != nil {
			log.Errorf("failed to read from sensor %s: %s", s.name, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: temperature %.1f°C (%.1f°F), humidity %.1f%%, heat index %.1f°C\n",
			s.name, reading.Celsius(), reading.Fahrenheit(), reading.Humidity(), reading.HeatIndexCelsius())
	}

	if failed > 0 {
		return errors.Errorf("%d of %d sensors failed", failed, len(sensors))
	}
	return nil
}
