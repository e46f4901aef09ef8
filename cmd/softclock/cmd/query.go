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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nortc/softclock/clock"
	"github.com/nortc/softclock/daemon"
	"github.com/nortc/softclock/stats"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(queryCmd)
	addSyncFlags(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Sync a fresh software clock once and print the result",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig(c)
		if err != nil {
			log.Fatal(err)
		}
		if err := query(context.Background(), os.Stdout, cfg); err != nil {
			log.Fatal(err)
		}
	},
}

func query(ctx context.Context, w io.Writer, cfg *daemon.Config) error {
	timers := clockwork.NewRealClock()
	c := clock.New(timers)
	d := daemon.New(cfg, newStack(cfg), c, timers, stats.NewStats())
	res, err := d.Attempt(ctx)
	if err != nil {
		return fmt.Errorf("querying %s: %w", cfg.Server, err)
	}
	return printResult(w, res, c.FormatShort())
}

func printResult(w io.Writer, res *daemon.Result, short string) error {
	table := tablewriter.NewWriter(w)
	table.Header("server", "address", "stratum", "time", "display", "offset", "round trip")
	if err := table.Append([]string{
		res.Server,
		res.Endpoint.String(),
		fmt.Sprintf("%d", res.SNTP.Stratum),
		res.Applied.Format(time.RFC3339Nano),
		short,
		res.SNTP.Offset.String(),
		res.SNTP.RoundTrip.String(),
	}); err != nil {
		return err
	}
	return table.Render()
}
