// Package config loads the dht-exporter configuration.
//
// The configuration is a YAML file listing the sensors to read and how the
// exporter serves their readings:
//
//	listen_address: ":8080"
//	read_interval: 30s
//	log_level: info
//	sensors:
//	  - name: living-room
//	    pin: GPIO4
//	    type: dht22
//	    attempts: 3
//
// Every sensor sits on its own pin. Fields left out keep the values from Default,
// and a sensor without attempts gets DefaultAttempts.
package config
