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
	"syscall"

	"github.com/nortc/softclock/clock"
	"github.com/nortc/softclock/netstack"
	"github.com/nortc/softclock/ntp/responder"
	"github.com/nortc/softclock/stats"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var responderCfg = responder.Config{
	Port:    123,
	RefID:   "SOFT",
	Stratum: 2,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	addSyncFlags(serveCmd)
	addDisplayFlags(serveCmd)
	serveCmd.Flags().Uint16Var(&responderCfg.Port, "listen", responderCfg.Port, "port to answer NTP requests on")
	serveCmd.Flags().StringVar(&responderCfg.RefID, "refid", responderCfg.RefID, "reference ID to announce")
	serveCmd.Flags().IntVar(&responderCfg.Stratum, "stratum", responderCfg.Stratum, "stratum to announce")
	serveCmd.Flags().DurationVar(&responderCfg.ExtraOffset, "extraoffset", 0, "extra offset to add to every answer")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the software clock in sync and answer NTP requests from it",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig(c)
		if err != nil {
			log.Fatal(err)
		}
		if err := responderCfg.Validate(); err != nil {
			log.Fatal(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stack := newStack(cfg)
		err = runSync(ctx, cfg, func(ctx context.Context, c *clock.Clock, st *stats.Stats) error {
			return serve(ctx, stack, c, st)
		})
		if err != nil {
			log.Fatal(err)
		}
	},
}

func serve(ctx context.Context, stack netstack.Stack, c *clock.Clock, st *stats.Stats) error {
	conn, err := stack.ListenUDP(ctx, responderCfg.Port)
	if err != nil {
		return err
	}
	defer conn.Close()
	s := &responder.Server{Config: responderCfg, Clock: c, Stats: st}
	return s.Serve(ctx, conn)
}
