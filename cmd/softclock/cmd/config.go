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


package cmd

import (
	"github.com/nortc/softclock/daemon"
	"github.com/nortc/softclock/netstack"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	flagCfg = daemon.DefaultConfig()
)

// addSyncFlags adds flags shared by every command talking to an NTP server
func addSyncFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "path to the yaml config")
	f.StringVarP(&flagCfg.Server, "server", "S", flagCfg.Server, "NTP server to sync with")
	f.Uint16Var(&flagCfg.Port, "port", flagCfg.Port, "NTP server port")
	f.Uint16Var(&flagCfg.LocalPort, "localport", flagCfg.LocalPort, "port to send requests from, 0 picks an ephemeral one")
	f.DurationVar(&flagCfg.Timeout, "timeout", flagCfg.Timeout, "how long to wait for a single exchange")
	f.StringVar(&flagCfg.DNSServer, "dnsserver", flagCfg.DNSServer, "DNS server (host:port) to resolve the NTP server with, system resolver if empty")
	f.IntVar(&flagCfg.DSCP, "dscp", flagCfg.DSCP, "DSCP value for requests")
}

// addDisplayFlags adds flags of the long running commands
func addDisplayFlags(c *cobra.Command) {
	f := c.Flags()
	f.IntVar(&flagCfg.MonitoringPort, "monitoringport", flagCfg.MonitoringPort, "port to serve counters and metrics on, 0 disables")
	f.StringVar(&flagCfg.Display, "display", flagCfg.Display, "where to show the time: log, term, serial or none")
	f.StringVar(&flagCfg.SerialPort, "serialport", flagCfg.SerialPort, "serial device of the attached display")
	f.IntVar(&flagCfg.SerialBaud, "serialbaud", flagCfg.SerialBaud, "serial display baud rate")
}

// loadConfig reads the config file if given and applies flags set on the command line on top
func loadConfig(c *cobra.Command) (*daemon.Config, error) {
	cfg := daemon.DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = daemon.ReadConfig(cfgPath); err != nil {
			return nil, err
		}
	}
	f := c.Flags()
	if f.Changed("server") {
		cfg.Server = flagCfg.Server
	}
	if f.Changed("port") {
		cfg.Port = flagCfg.Port
	}
	if f.Changed("localport") {
		cfg.LocalPort = flagCfg.LocalPort
	}
	if f.Changed("timeout") {
		cfg.Timeout = flagCfg.Timeout
	}
	if f.Changed("dnsserver") {
		cfg.DNSServer = flagCfg.DNSServer
	}
	if f.Changed("dscp") {
		cfg.DSCP = flagCfg.DSCP
	}
	if f.Changed("monitoringport") {
		cfg.MonitoringPort = flagCfg.MonitoringPort
	}
	if f.Changed("display") {
		cfg.Display = flagCfg.Display
	}
	if f.Changed("serialport") {
		cfg.SerialPort = flagCfg.SerialPort
	}
	if f.Changed("serialbaud") {
		cfg.SerialBaud = flagCfg.SerialBaud
	}
	return cfg, cfg.Validate()
}

func newStack(cfg *daemon.Config) *netstack.OSStack {
	return netstack.NewOSStack(netstack.Config{
		DNSServer:  cfg.DNSServer,
		DNSTimeout: cfg.Timeout,
		DSCP:       cfg.DSCP,
	})
}
