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
	"sort"

	"github.com/nortc/softclock/daemon"
	"github.com/nortc/softclock/stats"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var statsAddress string

func init() {
	RootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsAddress, "address", "a", fmt.Sprintf("http://localhost:%d", daemon.DefaultMonitoringPort), "address of a running softclock")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print counters of a running softclock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		counters, err := stats.FetchCounters(context.Background(), statsAddress)
		if err != nil {
			log.Fatal(err)
		}
		if err := printCounters(os.Stdout, counters); err != nil {
			log.Fatal(err)
		}
	},
}

func printCounters(w io.Writer, counters map[string]int64) error {
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("counter", "value")
	for _, k := range keys {
		if err := table.Append([]string{k, fmt.Sprintf("%d", counters[k])}); err != nil {
			return err
		}
	}
	return table.Render()
}
