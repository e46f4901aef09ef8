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


package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// CountersPath is where JSON counters are served
const CountersPath = "/counters"

// MetricsPath is where Prometheus metrics are served
const MetricsPath = "/metrics"

// Server exports Stats over http
type Server struct {
	stats    *Stats
	registry *prometheus.Registry
}

// NewServer returns a Server exporting s
func NewServer(s *Stats) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(&collector{stats: s})
	return &Server{stats: s, registry: registry}
}

// Handler serves JSON counters on / and /counters, Prometheus metrics on /metrics
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleRequest)
	mux.HandleFunc(CountersPath, srv.handleRequest)
	mux.Handle(MetricsPath, promhttp.HandlerFor(
		srv.registry,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))
	return mux
}

// Start runs the http server until ctx is cancelled
func (srv *Server) Start(ctx context.Context, monitoringport int) error {
	addr := fmt.Sprintf(":%d", monitoringport)
	hs := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	log.Infof("Starting http json server on %s", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stats server: %w", err)
	}
	return nil
}

// handleRequest is a handler used for all http monitoring requests
func (srv *Server) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(srv.stats.Get())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// collector turns every counter into a gauge at scrape time
type collector struct {
	stats *Stats
}

// Describe sends nothing, which makes this an unchecked collector
func (c *collector) Describe(chan<- *prometheus.Desc) {}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for key, val := range c.stats.Get() {
		desc := prometheus.NewDesc(flattenKey(key), key, nil, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, float64(val))
		if err != nil {
			log.Errorf("failed to export metric %s: %v", key, err)
			continue
		}
		ch <- m
	}
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return "softclock_" + key
}

// FetchCounters returns counters map fetched from the url
func FetchCounters(ctx context.Context, url string) (map[string]int64, error) {
	c := http.Client{
		Timeout: time.Second * 2,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+CountersPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	counters := map[string]int64{}
	err = json.Unmarshal(b, &counters)
	return counters, err
}
