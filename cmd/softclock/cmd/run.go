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
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/daemon"
	"github.com/jonboulle/clockwork"
	"github.com/nortc/softclock/clock"
	"github.com/nortc/softclock/daemon"
	"github.com/nortc/softclock/display"
	"github.com/nortc/softclock/stats"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	RootCmd.AddCommand(runCmd)
	addSyncFlags(runCmd)
	addDisplayFlags(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep the software clock in sync and display it",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig(c)
		if err != nil {
			log.Fatal(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runSync(ctx, cfg, nil); err != nil {
			log.Fatal(err)
		}
	},
}

// newSink returns the display sink cfg asks for, nil if none
func newSink(cfg *daemon.Config) (display.Sink, func(), error) {
	switch cfg.Display {
	case daemon.DisplayLog:
		return &display.LogSink{}, func() {}, nil
	case daemon.DisplayTerm:
		return display.NewTermSink(os.Stdout), func() {}, nil
	case daemon.DisplaySerial:
		s, err := display.NewSerialSink(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warningf("closing serial display: %v", err)
			}
		}, nil
	}
	return nil, func() {}, nil
}

// notifyReady tells systemd we are up, once
func notifyReady() func(*daemon.Result) {
	var once sync.Once
	return func(*daemon.Result) {
		once.Do(func() {
			sent, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
			if err != nil {
				log.Warningf("failed to notify systemd: %v", err)
				return
			}
			if sent {
				log.Debug("notified systemd")
			}
		})
	}
}

// runSync runs the sync loop, the display and the stats server until ctx is cancelled.
// extra, if set, runs alongside with the synchronized clock.
func runSync(ctx context.Context, cfg *daemon.Config, extra func(ctx context.Context, c *clock.Clock, st *stats.Stats) error) error {
	timers := clockwork.NewRealClock()
	c := clock.New(timers)
	st := stats.NewStats()
	d := daemon.New(cfg, newStack(cfg), c, timers, st)
	d.OnSync(notifyReady())

	sink, closeSink, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Run(ctx)
	})
	if sink != nil {
		g.Go(func() error {
			return display.New(c, sink, timers).Run(ctx)
		})
	}
	if cfg.MonitoringPort != 0 {
		g.Go(func() error {
			return stats.NewServer(st).Start(ctx, cfg.MonitoringPort)
		})
	}
	if extra != nil {
		g.Go(func() error {
			return extra(ctx, c, st)
		})
	}
	return g.Wait()
}
