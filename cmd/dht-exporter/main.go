// Dht-exporter reads DHT11/DHT21/DHT22 sensors on GPIO pins and exposes the
// readings as Prometheus metrics.
//
// Usage:
//
//	dht-exporter serve --pin GPIO4 --type dht22
//	dht-exporter serve --config /etc/dht-exporter.yaml
//	dht-exporter read --pin GPIO4 --type dht11
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rumatoest/gpio-sensors/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dht-exporter",
	Short: "DHT sensor Prometheus exporter",
	Long: `Reads temperature and humidity from DHT11, DHT21 (AM2301) and DHT22 (AM2302)
sensors wired to GPIO pins and serves them on /metrics.

Sensors come from a YAML config file (--config) or from the --name, --pin,
--type and --attempts flags for a single sensor.`,
	SilenceUsage: true,
}

func init() {
	//logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&sensorName, "name", "dht", "sensor name used as metric label")
	rootCmd.PersistentFlags().StringVar(&sensorPin, "pin", "", "GPIO pin name, e.g. GPIO4")
	rootCmd.PersistentFlags().StringVar(&sensorType, "type", "dht22", "sensor type: dht11, dht21, am2301, dht22, am2302")
	rootCmd.PersistentFlags().IntVar(&attempts, "attempts", config.DefaultAttempts, "extra reads after a failed one")

	serveCmd.Flags().StringVar(&listenAddr, "listen-address", "", "the address to listen on for HTTP requests")
	serveCmd.Flags().DurationVar(&readInterval, "read-interval", 0, "time interval between sensor reads")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(readCmd)
}
