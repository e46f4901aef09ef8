/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package daemon

import (
	"fmt"
	"net"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Display kinds
const (
	DisplayLog    = "log"
	DisplayTerm   = "term"
	DisplaySerial = "serial"
	DisplayNone   = "none"
)

// Defaults
const (
	DefaultServer         = "pool.ntp.org"
	DefaultPort           = 123
	DefaultTimeout        = 5 * time.Second
	DefaultMonitoringPort = 4270
	DefaultSerialBaud     = 9600
)

// Config represents configuration we expect to read from file
type Config struct {
	Server         string        // NTP server host name or IPv4 address
	Port           uint16        // NTP server port
	LocalPort      uint16        // port to send requests from, 0 picks an ephemeral one
	Timeout        time.Duration // how long to wait for a single exchange
	DNSServer      string        // host:port of a DNS server to ask directly, system resolver if empty
	DSCP           int           // DSCP value for requests
	MonitoringPort int           // port to serve counters and metrics on, 0 disables
	Display        string        // where to show the time: log, term, serial or none
	SerialPort     string        // serial device of the attached display
	SerialBaud     int           // serial device baud rate
}

// DefaultConfig returns config with all defaults set
func DefaultConfig() *Config {
	return &Config{
		Server:         DefaultServer,
		Port:           DefaultPort,
		Timeout:        DefaultTimeout,
		MonitoringPort: DefaultMonitoringPort,
		Display:        DisplayLog,
		SerialBaud:     DefaultSerialBaud,
	}
}

// Validate makes sure config is valid
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("bad config: 'server' must be specified")
	}
	if c.Port == 0 {
		return fmt.Errorf("bad config: 'port' must be >0")
	}
	if c.Timeout <= 0 || c.Timeout > time.Minute {
		return fmt.Errorf("bad config: 'timeout' must be between 0 and 1 minute")
	}
	if c.DNSServer != "" {
		if _, _, err := net.SplitHostPort(c.DNSServer); err != nil {
			return fmt.Errorf("bad config: 'dnsserver' must be host:port: %w", err)
		}
	}
	if c.DSCP < 0 || c.DSCP > 63 {
		return fmt.Errorf("bad config: 'dscp' must be between 0 and 63")
	}
	if c.MonitoringPort < 0 || c.MonitoringPort > 65535 {
		return fmt.Errorf("bad config: 'monitoringport' must be between 0 and 65535")
	}
	switch c.Display {
	case DisplayLog, DisplayTerm, DisplayNone:
	case DisplaySerial:
		if c.SerialPort == "" {
			return fmt.Errorf("bad config: 'serialport' must be specified for serial display")
		}
		if c.SerialBaud <= 0 {
			return fmt.Errorf("bad config: 'serialbaud' must be >0")
		}
	default:
		return fmt.Errorf("bad config: unsupported 'display' %q", c.Display)
	}
	return nil
}

// ReadConfig reads config and unmarshals it from yaml on top of DefaultConfig
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	err = yaml.UnmarshalStrict(data, c)
	return c, err
}
